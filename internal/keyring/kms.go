package keyring

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// kmsClient wraps the AWS KMS SDK to perform envelope decryption of the
// sequencer's signing key.
type kmsClient struct {
	kms *kms.Client
}

// newKMSClient creates a KMS client. If localStackEndpoint is non-empty the
// client targets that endpoint with dummy credentials, for local
// development against LocalStack; otherwise it uses the AWS default
// credential chain.
func newKMSClient(ctx context.Context, region, localStackEndpoint string) (*kmsClient, error) {
	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(region))

	if localStackEndpoint != "" {
		opts = append(opts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "test")),
		)
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("keyring: load aws config: %w", err)
	}

	var kmsOpts []func(*kms.Options)
	if localStackEndpoint != "" {
		kmsOpts = append(kmsOpts, func(o *kms.Options) {
			o.BaseEndpoint = aws.String(localStackEndpoint)
		})
	}

	return &kmsClient{kms: kms.NewFromConfig(cfg, kmsOpts...)}, nil
}

// decrypt sends ciphertext to KMS and returns the decrypted plaintext. The
// caller is responsible for sealing or zeroing the returned bytes.
func (c *kmsClient) decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	out, err := c.kms.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: ciphertext})
	if err != nil {
		return nil, fmt.Errorf("keyring: kms decrypt: %w", err)
	}
	return out.Plaintext, nil
}
