package rwacmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/spf13/cobra"
)

const (
	logLevelFlagName  = "log-level"
	logLevelEnvKey    = "RWAVC_LOG_LEVEL"
	logLevelFlagUsage = "Log level." +
		" Possible values [INFO] [DEBUG] [ERROR] [WARNING] [CRITICAL] . Defaults to INFO if not set." +
		" Alternatively, this can be set with the following environment variable: " + logLevelEnvKey

	inFlagName      = "in"
	inEnvKey        = "RWAVC_IN"
	inFlagShorthand = "i"
	inFlagUsage     = "Path of the input credential." +
		" Alternatively, this can be set with the following environment variable: " + inEnvKey

	outFlagName      = "out"
	outEnvKey        = "RWAVC_OUT"
	outFlagShorthand = "o"
	outFlagUsage     = "Path of the output file. Defaults to standard output if not set." +
		" Alternatively, this can be set with the following environment variable: " + outEnvKey

	keysFlagName      = "keys"
	keysEnvKey        = "RWAVC_KEYS"
	keysFlagShorthand = "k"
	keysFlagUsage     = "Path of the keys configuration (domain, keys, addresses)." +
		" Alternatively, this can be set with the following environment variable: " + keysEnvKey

	verifyingContractFlagName  = "verifying-contract"
	verifyingContractEnvKey    = "RWAVC_VERIFYING_CONTRACT"
	verifyingContractFlagUsage = "Verifying contract address of the signing domain (optional)." +
		" Alternatively, this can be set with the following environment variable: " + verifyingContractEnvKey

	remoteSignerFlagName  = "remote-signer-url"
	remoteSignerEnvKey    = "RWAVC_REMOTE_SIGNER_URL"
	remoteSignerFlagUsage = "URL of a remote signing service. When set, keys are key references of the service." +
		" Alternatively, this can be set with the following environment variable: " + remoteSignerEnvKey

	remoteSignerAPIKeyFlagName  = "remote-signer-api-key"
	remoteSignerAPIKeyEnvKey    = "RWAVC_REMOTE_SIGNER_API_KEY" // nolint:gosec
	remoteSignerAPIKeyFlagUsage = "API key of the remote signing service (optional)." +
		" Alternatively, this can be set with the following environment variable: " + remoteSignerAPIKeyEnvKey

	validateSchemaFlagName  = "validate-schema"
	validateSchemaEnvKey    = "RWAVC_VALIDATE_SCHEMA"
	validateSchemaFlagUsage = "Validate the credential envelope before signing or verifying." +
		" Alternatively, this can be set with the following environment variable: " + validateSchemaEnvKey

	checkStatusFlagName  = "check-status"
	checkStatusEnvKey    = "RWAVC_CHECK_STATUS"
	checkStatusFlagUsage = "Consult the status lists named in credentialStatus." +
		" Alternatively, this can be set with the following environment variable: " + checkStatusEnvKey
)

func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		return value, nil
	}

	return "", errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set.")
}

func getUserSetBool(cmd *cobra.Command, flagName, envKey string) (bool, error) {
	if cmd.Flags().Changed(flagName) {
		return cmd.Flags().GetBool(flagName)
	}

	value, isSet := os.LookupEnv(envKey)
	if !isSet || value == "" {
		return false, nil
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid value of %s: %w", envKey, err)
	}

	return b, nil
}

func setLogLevel(logLevel string) error {
	if logLevel != "" {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level '%s' : %w", logLevel, err)
		}

		log.SetLevel("", level)

		logger.Infof("logger level set to %s", logLevel)
	}

	return nil
}
