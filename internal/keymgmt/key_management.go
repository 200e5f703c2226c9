package keymgmt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"github.com/onflow/flow-go-sdk/crypto/cloudkms"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// ProbeAdminKey verifies the custodial admin signing key exists in
// Google KMS and has finished generating. Settlement stays in manual
// review until this succeeds.
func ProbeAdminKey(ctx context.Context) error {
	resourceName := viper.Get("ADMIN_GCP_KMS_RESOURCE_NAME").(string)
	if resourceName == "" {
		return fmt.Errorf("admin KMS resource name not configured")
	}

	k, err := cloudkms.KeyFromResourceID(resourceName)
	if err != nil {
		return err
	}

	client, err := cloudkms.NewClient(ctx)
	if err != nil {
		return err
	}

	b := &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    time.Minute,
		Factor: 5,
		Jitter: true,
	}

	deadline := time.Now().Add(60 * time.Second)

	log.Trace().Msg(fmt.Sprintf("Probing admin KMS key, keyId: %s", k.KeyID))

	for {
		publicKey, _, err := client.GetPublicKey(ctx, k)
		if publicKey != nil {
			return nil
		}
		// non-retryable error
		if err != nil && !strings.Contains(err.Error(), "KEY_PENDING_GENERATION") {
			return err
		}
		if err != nil {
			log.Trace().Msg("Admin KMS key is pending generation, will retry")
		}

		time.Sleep(b.Duration())

		if time.Now().After(deadline) {
			err = fmt.Errorf("timeout while probing admin KMS key")
			log.Error().Err(err)
			return err
		}
	}
}
