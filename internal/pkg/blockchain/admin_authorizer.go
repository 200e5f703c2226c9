package blockchain

import "github.com/spf13/viper"

// GetAdminAuthorizer is the KMS-backed escrow account that signs every
// payout and refund command.
func GetAdminAuthorizer() Authorizer {
	return Authorizer{
		KmsResourceId:        viper.Get("ADMIN_GCP_KMS_RESOURCE_NAME").(string),
		ResourceOwnerAddress: viper.Get("ADMIN_AUTHORIZER_ADDR").(string),
	}
}
