package chain

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

func TestStreamChannelMetaData_ParsesAndExposesExpectedMethods(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(StreamChannelMetaData.ABI))
	if err != nil {
		t.Fatalf("parse ABI: %v", err)
	}

	for _, name := range []string{"sequencer", "domainSeparator", "getChannel", "publishIntermediateChannelState", "finalCloseBySequencer"} {
		if _, ok := parsed.Methods[name]; !ok {
			t.Errorf("expected method %q in ABI", name)
		}
	}
}

func TestStreamChannelMetaData_ExposesExpectedEvents(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(StreamChannelMetaData.ABI))
	if err != nil {
		t.Fatalf("parse ABI: %v", err)
	}
	for _, name := range []string{"ChannelFinalized", "ChannelStateIntermediate"} {
		if _, ok := parsed.Events[name]; !ok {
			t.Errorf("expected event %q in ABI", name)
		}
	}
}
