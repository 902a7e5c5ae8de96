// This binding is hand-written in the layout abigen generates; it is not
// produced by a generator and is edited directly.

package chain

import (
	"errors"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// Reference imports to suppress errors if they are not otherwise used.
var (
	_ = errors.New
	_ = big.NewInt
	_ = strings.NewReader
	_ = ethereum.NotFound
	_ = bind.Bind
	_ = common.Big1
	_ = types.BloomLookup
	_ = event.NewSubscription
	_ = abi.ConvertType
)

// StreamChannelMetaData contains all meta data concerning the StreamChannel contract.
var StreamChannelMetaData = &bind.MetaData{
	ABI: "[{\"type\":\"function\",\"name\":\"sequencer\",\"inputs\":[],\"outputs\":[{\"name\":\"\",\"type\":\"address\",\"internalType\":\"address\"}],\"stateMutability\":\"view\"},{\"type\":\"function\",\"name\":\"domainSeparator\",\"inputs\":[],\"outputs\":[{\"name\":\"\",\"type\":\"bytes32\",\"internalType\":\"bytes32\"}],\"stateMutability\":\"view\"},{\"type\":\"function\",\"name\":\"getChannel\",\"inputs\":[{\"name\":\"channelId\",\"type\":\"bytes32\",\"internalType\":\"bytes32\"}],\"outputs\":[{\"name\":\"owner\",\"type\":\"address\",\"internalType\":\"address\"},{\"name\":\"balance\",\"type\":\"uint256\",\"internalType\":\"uint256\"},{\"name\":\"sequenceNumber\",\"type\":\"uint256\",\"internalType\":\"uint256\"},{\"name\":\"closed\",\"type\":\"bool\",\"internalType\":\"bool\"}],\"stateMutability\":\"view\"},{\"type\":\"function\",\"name\":\"publishIntermediateChannelState\",\"inputs\":[{\"name\":\"channelId\",\"type\":\"bytes32\",\"internalType\":\"bytes32\"},{\"name\":\"sequenceNumber\",\"type\":\"uint256\",\"internalType\":\"uint256\"},{\"name\":\"timestamp\",\"type\":\"uint256\",\"internalType\":\"uint256\"},{\"name\":\"recipients\",\"type\":\"address[]\",\"internalType\":\"address[]\"},{\"name\":\"amounts\",\"type\":\"uint256[]\",\"internalType\":\"uint256[]\"},{\"name\":\"userSignature\",\"type\":\"bytes\",\"internalType\":\"bytes\"},{\"name\":\"sequencerSignature\",\"type\":\"bytes\",\"internalType\":\"bytes\"}],\"outputs\":[],\"stateMutability\":\"nonpayable\"},{\"type\":\"function\",\"name\":\"finalCloseBySequencer\",\"inputs\":[{\"name\":\"channelId\",\"type\":\"bytes32\",\"internalType\":\"bytes32\"},{\"name\":\"sequenceNumber\",\"type\":\"uint256\",\"internalType\":\"uint256\"},{\"name\":\"timestamp\",\"type\":\"uint256\",\"internalType\":\"uint256\"},{\"name\":\"recipients\",\"type\":\"address[]\",\"internalType\":\"address[]\"},{\"name\":\"amounts\",\"type\":\"uint256[]\",\"internalType\":\"uint256[]\"},{\"name\":\"userSignature\",\"type\":\"bytes\",\"internalType\":\"bytes\"}],\"outputs\":[],\"stateMutability\":\"nonpayable\"},{\"type\":\"event\",\"name\":\"ChannelFinalized\",\"inputs\":[{\"name\":\"channelId\",\"type\":\"bytes32\",\"indexed\":true,\"internalType\":\"bytes32\"},{\"name\":\"sequenceNumber\",\"type\":\"uint256\",\"indexed\":false,\"internalType\":\"uint256\"}],\"anonymous\":false},{\"type\":\"event\",\"name\":\"ChannelStateIntermediate\",\"inputs\":[{\"name\":\"channelId\",\"type\":\"bytes32\",\"indexed\":true,\"internalType\":\"bytes32\"},{\"name\":\"sequenceNumber\",\"type\":\"uint256\",\"indexed\":false,\"internalType\":\"uint256\"}],\"anonymous\":false}]",
}

// StreamChannelABI is the input ABI used to generate the binding from.
// Deprecated: Use StreamChannelMetaData.ABI instead.
var StreamChannelABI = StreamChannelMetaData.ABI

// StreamChannel is an auto generated Go binding around an Ethereum contract.
type StreamChannel struct {
	StreamChannelCaller     // Read-only binding to the contract
	StreamChannelTransactor // Write-only binding to the contract
	StreamChannelFilterer   // Log filterer for contract events
}

// StreamChannelCaller is an auto generated read-only Go binding around an Ethereum contract.
type StreamChannelCaller struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// StreamChannelTransactor is an auto generated write-only Go binding around an Ethereum contract.
type StreamChannelTransactor struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// StreamChannelFilterer is an auto generated log filtering Go binding around an Ethereum contract events.
type StreamChannelFilterer struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// StreamChannelSession is an auto generated Go binding around an Ethereum contract,
// with pre-set call and transact options.
type StreamChannelSession struct {
	Contract     *StreamChannel    // Generic contract binding to set the session for
	CallOpts     bind.CallOpts     // Call options to use throughout this session
	TransactOpts bind.TransactOpts // Transaction auth options to use throughout this session
}

// StreamChannelCallerSession is an auto generated read-only Go binding around an Ethereum contract,
// with pre-set call options.
type StreamChannelCallerSession struct {
	Contract *StreamChannelCaller // Generic contract caller binding to set the session for
	CallOpts bind.CallOpts        // Call options to use throughout this session
}

// StreamChannelTransactorSession is an auto generated write-only Go binding around an Ethereum contract,
// with pre-set transact options.
type StreamChannelTransactorSession struct {
	Contract     *StreamChannelTransactor // Generic contract transactor binding to set the session for
	TransactOpts bind.TransactOpts        // Transaction auth options to use throughout this session
}

// StreamChannelRaw is an auto generated low-level Go binding around an Ethereum contract.
type StreamChannelRaw struct {
	Contract *StreamChannel // Generic contract binding to access the raw methods on
}

// StreamChannelCallerRaw is an auto generated low-level read-only Go binding around an Ethereum contract.
type StreamChannelCallerRaw struct {
	Contract *StreamChannelCaller // Generic read-only contract binding to access the raw methods on
}

// StreamChannelTransactorRaw is an auto generated low-level write-only Go binding around an Ethereum contract.
type StreamChannelTransactorRaw struct {
	Contract *StreamChannelTransactor // Generic write-only contract binding to access the raw methods on
}

// NewStreamChannel creates a new instance of StreamChannel, bound to a specific deployed contract.
func NewStreamChannel(address common.Address, backend bind.ContractBackend) (*StreamChannel, error) {
	contract, err := bindStreamChannel(address, backend, backend, backend)
	if err != nil {
		return nil, err
	}
	return &StreamChannel{StreamChannelCaller: StreamChannelCaller{contract: contract}, StreamChannelTransactor: StreamChannelTransactor{contract: contract}, StreamChannelFilterer: StreamChannelFilterer{contract: contract}}, nil
}

// NewStreamChannelCaller creates a new read-only instance of StreamChannel, bound to a specific deployed contract.
func NewStreamChannelCaller(address common.Address, caller bind.ContractCaller) (*StreamChannelCaller, error) {
	contract, err := bindStreamChannel(address, caller, nil, nil)
	if err != nil {
		return nil, err
	}
	return &StreamChannelCaller{contract: contract}, nil
}

// NewStreamChannelTransactor creates a new write-only instance of StreamChannel, bound to a specific deployed contract.
func NewStreamChannelTransactor(address common.Address, transactor bind.ContractTransactor) (*StreamChannelTransactor, error) {
	contract, err := bindStreamChannel(address, nil, transactor, nil)
	if err != nil {
		return nil, err
	}
	return &StreamChannelTransactor{contract: contract}, nil
}

// NewStreamChannelFilterer creates a new log filterer instance of StreamChannel, bound to a specific deployed contract.
func NewStreamChannelFilterer(address common.Address, filterer bind.ContractFilterer) (*StreamChannelFilterer, error) {
	contract, err := bindStreamChannel(address, nil, nil, filterer)
	if err != nil {
		return nil, err
	}
	return &StreamChannelFilterer{contract: contract}, nil
}

// bindStreamChannel binds a generic wrapper to an already deployed contract.
func bindStreamChannel(address common.Address, caller bind.ContractCaller, transactor bind.ContractTransactor, filterer bind.ContractFilterer) (*bind.BoundContract, error) {
	parsed, err := StreamChannelMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(address, *parsed, caller, transactor, filterer), nil
}

// Call invokes the (constant) contract method with params as input values and
// sets the output to result.
func (_StreamChannel *StreamChannelRaw) Call(opts *bind.CallOpts, result *[]interface{}, method string, params ...interface{}) error {
	return _StreamChannel.Contract.StreamChannelCaller.contract.Call(opts, result, method, params...)
}

// Transfer initiates a plain transaction to move funds to the contract, calling
// its default method if one is available.
func (_StreamChannel *StreamChannelRaw) Transfer(opts *bind.TransactOpts) (*types.Transaction, error) {
	return _StreamChannel.Contract.StreamChannelTransactor.contract.Transfer(opts)
}

// Transact invokes the (paid) contract method with params as input values.
func (_StreamChannel *StreamChannelRaw) Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error) {
	return _StreamChannel.Contract.StreamChannelTransactor.contract.Transact(opts, method, params...)
}

// Call invokes the (constant) contract method with params as input values and
// sets the output to result.
func (_StreamChannel *StreamChannelCallerRaw) Call(opts *bind.CallOpts, result *[]interface{}, method string, params ...interface{}) error {
	return _StreamChannel.Contract.contract.Call(opts, result, method, params...)
}

// Transfer initiates a plain transaction to move funds to the contract, calling
// its default method if one is available.
func (_StreamChannel *StreamChannelTransactorRaw) Transfer(opts *bind.TransactOpts) (*types.Transaction, error) {
	return _StreamChannel.Contract.contract.Transfer(opts)
}

// Transact invokes the (paid) contract method with params as input values.
func (_StreamChannel *StreamChannelTransactorRaw) Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error) {
	return _StreamChannel.Contract.contract.Transact(opts, method, params...)
}

// Sequencer is a free data retrieval call binding the contract method.
//
// Solidity: function sequencer() view returns(address)
func (_StreamChannel *StreamChannelCaller) Sequencer(opts *bind.CallOpts) (common.Address, error) {
	var out []interface{}
	err := _StreamChannel.contract.Call(opts, &out, "sequencer")

	if err != nil {
		return *new(common.Address), err
	}

	out0 := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)

	return out0, err
}

// Sequencer is a free data retrieval call binding the contract method.
//
// Solidity: function sequencer() view returns(address)
func (_StreamChannel *StreamChannelSession) Sequencer() (common.Address, error) {
	return _StreamChannel.Contract.Sequencer(&_StreamChannel.CallOpts)
}

// Sequencer is a free data retrieval call binding the contract method.
//
// Solidity: function sequencer() view returns(address)
func (_StreamChannel *StreamChannelCallerSession) Sequencer() (common.Address, error) {
	return _StreamChannel.Contract.Sequencer(&_StreamChannel.CallOpts)
}

// DomainSeparator is a free data retrieval call binding the contract method.
//
// Solidity: function domainSeparator() view returns(bytes32)
func (_StreamChannel *StreamChannelCaller) DomainSeparator(opts *bind.CallOpts) ([32]byte, error) {
	var out []interface{}
	err := _StreamChannel.contract.Call(opts, &out, "domainSeparator")

	if err != nil {
		return *new([32]byte), err
	}

	out0 := *abi.ConvertType(out[0], new([32]byte)).(*[32]byte)

	return out0, err
}

// DomainSeparator is a free data retrieval call binding the contract method.
//
// Solidity: function domainSeparator() view returns(bytes32)
func (_StreamChannel *StreamChannelSession) DomainSeparator() ([32]byte, error) {
	return _StreamChannel.Contract.DomainSeparator(&_StreamChannel.CallOpts)
}

// GetChannel is a free data retrieval call binding the contract method.
//
// Solidity: function getChannel(bytes32 channelId) view returns(address owner, uint256 balance, uint256 sequenceNumber, bool closed)
func (_StreamChannel *StreamChannelCaller) GetChannel(opts *bind.CallOpts, channelId [32]byte) (struct {
	Owner          common.Address
	Balance        *big.Int
	SequenceNumber *big.Int
	Closed         bool
}, error) {
	var out []interface{}
	err := _StreamChannel.contract.Call(opts, &out, "getChannel", channelId)

	outstruct := new(struct {
		Owner          common.Address
		Balance        *big.Int
		SequenceNumber *big.Int
		Closed         bool
	})
	if err != nil {
		return *outstruct, err
	}

	outstruct.Owner = *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	outstruct.Balance = *abi.ConvertType(out[1], new(*big.Int)).(**big.Int)
	outstruct.SequenceNumber = *abi.ConvertType(out[2], new(*big.Int)).(**big.Int)
	outstruct.Closed = *abi.ConvertType(out[3], new(bool)).(*bool)

	return *outstruct, err
}

// GetChannel is a free data retrieval call binding the contract method.
//
// Solidity: function getChannel(bytes32 channelId) view returns(address owner, uint256 balance, uint256 sequenceNumber, bool closed)
func (_StreamChannel *StreamChannelSession) GetChannel(channelId [32]byte) (struct {
	Owner          common.Address
	Balance        *big.Int
	SequenceNumber *big.Int
	Closed         bool
}, error) {
	return _StreamChannel.Contract.GetChannel(&_StreamChannel.CallOpts, channelId)
}

// PublishIntermediateChannelState is a paid mutator transaction binding the contract method.
//
// Solidity: function publishIntermediateChannelState(bytes32 channelId, uint256 sequenceNumber, uint256 timestamp, address[] recipients, uint256[] amounts, bytes userSignature, bytes sequencerSignature) returns()
func (_StreamChannel *StreamChannelTransactor) PublishIntermediateChannelState(opts *bind.TransactOpts, channelId [32]byte, sequenceNumber *big.Int, timestamp *big.Int, recipients []common.Address, amounts []*big.Int, userSignature []byte, sequencerSignature []byte) (*types.Transaction, error) {
	return _StreamChannel.contract.Transact(opts, "publishIntermediateChannelState", channelId, sequenceNumber, timestamp, recipients, amounts, userSignature, sequencerSignature)
}

// PublishIntermediateChannelState is a paid mutator transaction binding the contract method.
//
// Solidity: function publishIntermediateChannelState(bytes32 channelId, uint256 sequenceNumber, uint256 timestamp, address[] recipients, uint256[] amounts, bytes userSignature, bytes sequencerSignature) returns()
func (_StreamChannel *StreamChannelSession) PublishIntermediateChannelState(channelId [32]byte, sequenceNumber *big.Int, timestamp *big.Int, recipients []common.Address, amounts []*big.Int, userSignature []byte, sequencerSignature []byte) (*types.Transaction, error) {
	return _StreamChannel.Contract.PublishIntermediateChannelState(&_StreamChannel.TransactOpts, channelId, sequenceNumber, timestamp, recipients, amounts, userSignature, sequencerSignature)
}

// PublishIntermediateChannelState is a paid mutator transaction binding the contract method.
//
// Solidity: function publishIntermediateChannelState(bytes32 channelId, uint256 sequenceNumber, uint256 timestamp, address[] recipients, uint256[] amounts, bytes userSignature, bytes sequencerSignature) returns()
func (_StreamChannel *StreamChannelTransactorSession) PublishIntermediateChannelState(channelId [32]byte, sequenceNumber *big.Int, timestamp *big.Int, recipients []common.Address, amounts []*big.Int, userSignature []byte, sequencerSignature []byte) (*types.Transaction, error) {
	return _StreamChannel.Contract.PublishIntermediateChannelState(&_StreamChannel.TransactOpts, channelId, sequenceNumber, timestamp, recipients, amounts, userSignature, sequencerSignature)
}

// FinalCloseBySequencer is a paid mutator transaction binding the contract method. The
// sequencer's own signature is not a calldata argument: the contract authenticates the
// caller via msg.sender against its stored sequencer() address, so only the payer's
// signature over the closing state needs to travel on-chain.
//
// Solidity: function finalCloseBySequencer(bytes32 channelId, uint256 sequenceNumber, uint256 timestamp, address[] recipients, uint256[] amounts, bytes userSignature) returns()
func (_StreamChannel *StreamChannelTransactor) FinalCloseBySequencer(opts *bind.TransactOpts, channelId [32]byte, sequenceNumber *big.Int, timestamp *big.Int, recipients []common.Address, amounts []*big.Int, userSignature []byte) (*types.Transaction, error) {
	return _StreamChannel.contract.Transact(opts, "finalCloseBySequencer", channelId, sequenceNumber, timestamp, recipients, amounts, userSignature)
}

// FinalCloseBySequencer is a paid mutator transaction binding the contract method.
//
// Solidity: function finalCloseBySequencer(bytes32 channelId, uint256 sequenceNumber, uint256 timestamp, address[] recipients, uint256[] amounts, bytes userSignature) returns()
func (_StreamChannel *StreamChannelSession) FinalCloseBySequencer(channelId [32]byte, sequenceNumber *big.Int, timestamp *big.Int, recipients []common.Address, amounts []*big.Int, userSignature []byte) (*types.Transaction, error) {
	return _StreamChannel.Contract.FinalCloseBySequencer(&_StreamChannel.TransactOpts, channelId, sequenceNumber, timestamp, recipients, amounts, userSignature)
}

// FinalCloseBySequencer is a paid mutator transaction binding the contract method.
//
// Solidity: function finalCloseBySequencer(bytes32 channelId, uint256 sequenceNumber, uint256 timestamp, address[] recipients, uint256[] amounts, bytes userSignature) returns()
func (_StreamChannel *StreamChannelTransactorSession) FinalCloseBySequencer(channelId [32]byte, sequenceNumber *big.Int, timestamp *big.Int, recipients []common.Address, amounts []*big.Int, userSignature []byte) (*types.Transaction, error) {
	return _StreamChannel.Contract.FinalCloseBySequencer(&_StreamChannel.TransactOpts, channelId, sequenceNumber, timestamp, recipients, amounts, userSignature)
}
