// Package rwacmd holds the commands of the rwavc tool.
package rwacmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/spf13/cobra"

	credentialstatus "github.com/pilacorp/go-rwa-vc-sdk/credential/common/credential-status"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/jsonmap"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/signer"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/rwa"
)

var logger = log.New("rwa-vc/cli")

// ErrInvalidCredential is returned by verify when any proof fails.
var ErrInvalidCredential = errors.New("credential is not valid")

// RootCmd builds the rwavc command tree.
func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rwavc",
		Short:         "Issue and verify RWA credentials",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logLevel, err := getUserSetVar(cmd, logLevelFlagName, logLevelEnvKey, true)
			if err != nil {
				return err
			}

			return setLogLevel(logLevel)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	rootCmd.PersistentFlags().String(logLevelFlagName, "", logLevelFlagUsage)

	rootCmd.AddCommand(keygenCmd(), issueCmd(), verifyCmd(), demoCmd())

	return rootCmd
}

func keygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key for every role",
		Long:  `Generate a keys configuration with a fresh key and address for each role and the default domain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := getUserSetVar(cmd, outFlagName, outEnvKey, true)
			if err != nil {
				return err
			}

			cfg, err := rwa.GenerateConfig(rwa.DefaultDomain())
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), out, cfg)
		},
	}

	cmd.Flags().StringP(outFlagName, outFlagShorthand, "", outFlagUsage)

	return cmd
}

func issueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign the sections and the document of a credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := getUserSetVar(cmd, inFlagName, inEnvKey, false)
			if err != nil {
				return err
			}

			out, err := getUserSetVar(cmd, outFlagName, outEnvKey, true)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}

			doc, err := loadDocument(in)
			if err != nil {
				return err
			}

			opts, err := issuerOpts(cmd)
			if err != nil {
				return err
			}

			issued, records, err := rwa.NewIssuer(opts...).Issue(doc, cfg)
			if err != nil {
				return err
			}

			for _, r := range records {
				logger.Infof("signed %s", r.Path)
			}

			return writeJSON(cmd.OutOrStdout(), out, issued)
		},
	}

	cmd.Flags().StringP(inFlagName, inFlagShorthand, "", inFlagUsage)
	cmd.Flags().StringP(outFlagName, outFlagShorthand, "", outFlagUsage)
	cmd.Flags().StringP(keysFlagName, keysFlagShorthand, "", keysFlagUsage)
	cmd.Flags().String(verifyingContractFlagName, "", verifyingContractFlagUsage)
	cmd.Flags().String(remoteSignerFlagName, "", remoteSignerFlagUsage)
	cmd.Flags().String(remoteSignerAPIKeyFlagName, "", remoteSignerAPIKeyFlagUsage)
	cmd.Flags().Bool(validateSchemaFlagName, false, validateSchemaFlagUsage)

	return cmd
}

func verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the proofs of an issued credential",
		Long:  `Verify every section proof and the document proof. Exits with an error when any proof fails`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := getUserSetVar(cmd, inFlagName, inEnvKey, false)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd, true)
			if err != nil {
				return err
			}

			doc, err := loadDocument(in)
			if err != nil {
				return err
			}

			checkStatus, err := getUserSetBool(cmd, checkStatusFlagName, checkStatusEnvKey)
			if err != nil {
				return err
			}

			validateSchema, err := getUserSetBool(cmd, validateSchemaFlagName, validateSchemaEnvKey)
			if err != nil {
				return err
			}

			return verify(cmd, doc, cfg, checkStatus, validateSchema)
		},
	}

	cmd.Flags().StringP(inFlagName, inFlagShorthand, "", inFlagUsage)
	cmd.Flags().StringP(keysFlagName, keysFlagShorthand, "", keysFlagUsage)
	cmd.Flags().Bool(checkStatusFlagName, false, checkStatusFlagUsage)
	cmd.Flags().Bool(validateSchemaFlagName, false, validateSchemaFlagUsage)

	return cmd
}

func demoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Issue and verify a credential with freshly generated keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := getUserSetVar(cmd, inFlagName, inEnvKey, true)
			if err != nil {
				return err
			}

			raw := []byte(sampleCredential)
			if in != "" {
				if raw, err = os.ReadFile(in); err != nil {
					return fmt.Errorf("failed to read credential: %w", err)
				}
			}

			doc, err := jsonmap.FromRaw(raw)
			if err != nil {
				return err
			}

			cfg, err := rwa.GenerateConfig(rwa.DefaultDomain())
			if err != nil {
				return err
			}

			issued, records, err := rwa.NewIssuer().Issue(doc, cfg)
			if err != nil {
				return err
			}

			if err := writeJSON(cmd.OutOrStdout(), "", map[string]interface{}{
				"credential": issued,
				"proofs":     records,
			}); err != nil {
				return err
			}

			return verify(cmd, issued, cfg, false, false)
		},
	}

	cmd.Flags().StringP(inFlagName, inFlagShorthand, "", inFlagUsage)

	return cmd
}

func verify(cmd *cobra.Command, doc jsonmap.JSONMap, cfg *rwa.Config, checkStatus, validateSchema bool) error {
	domain := rwa.DefaultDomain()
	var expected map[rwa.Role]string
	if cfg != nil {
		domain = cfg.Domain
		var err error
		if expected, err = cfg.ExpectedSigners(); err != nil {
			return err
		}
	}

	opts := []rwa.Opt{rwa.WithDefaultDomain(domain)}
	if validateSchema {
		opts = append(opts, rwa.WithSchemaValidation())
	}
	verifier := rwa.NewVerifier(opts...)

	var (
		report *rwa.Report
		err    error
	)
	if checkStatus {
		report, err = verifier.VerifyWithStatus(context.Background(), doc, expected, credentialstatus.NewClient())
	} else {
		var results []rwa.Result
		results, err = verifier.Verify(doc, expected)
		report = &rwa.Report{Results: results, Status: credentialstatus.StatusUnknown, Valid: rwa.AllValid(results)}
	}
	if err != nil {
		return err
	}

	if err := writeJSON(cmd.OutOrStdout(), "", report); err != nil {
		return err
	}

	if !report.Valid {
		return ErrInvalidCredential
	}

	return nil
}

func issuerOpts(cmd *cobra.Command) ([]rwa.Opt, error) {
	var opts []rwa.Opt

	contract, err := getUserSetVar(cmd, verifyingContractFlagName, verifyingContractEnvKey, true)
	if err != nil {
		return nil, err
	}
	if contract != "" {
		opts = append(opts, rwa.WithVerifyingContract(contract))
	}

	remoteURL, err := getUserSetVar(cmd, remoteSignerFlagName, remoteSignerEnvKey, true)
	if err != nil {
		return nil, err
	}
	if remoteURL != "" {
		apiKey, err := getUserSetVar(cmd, remoteSignerAPIKeyFlagName, remoteSignerAPIKeyEnvKey, true)
		if err != nil {
			return nil, err
		}
		remote, err := signer.NewRemoteSigner(remoteURL, apiKey)
		if err != nil {
			return nil, err
		}
		opts = append(opts, rwa.WithSigner(remote))
	}

	validateSchema, err := getUserSetBool(cmd, validateSchemaFlagName, validateSchemaEnvKey)
	if err != nil {
		return nil, err
	}
	if validateSchema {
		opts = append(opts, rwa.WithSchemaValidation())
	}

	return opts, nil
}

func loadConfig(cmd *cobra.Command, isOptional bool) (*rwa.Config, error) {
	path, err := getUserSetVar(cmd, keysFlagName, keysEnvKey, isOptional)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keys configuration: %w", err)
	}

	return rwa.ParseConfig(raw)
}

func loadDocument(path string) (jsonmap.JSONMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}

	return jsonmap.FromRaw(raw)
}

func writeJSON(stdout io.Writer, path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	if path == "" {
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}

	return os.WriteFile(path, append(data, '\n'), 0o600)
}

const sampleCredential = `{
  "@context": ["https://www.w3.org/ns/credentials/v2"],
  "type": ["VerifiableCredential", "RWACredential"],
  "issuer": "did:example:issuer",
  "credentialSubject": {
    "id": "did:example:asset-1",
    "identity": {
      "assetId": "VIN-WVWZZZ1JZXW000001",
      "owner": "did:example:alice",
      "sProof": {"type": "", "sectionHash": "", "proofValue": ""}
    },
    "compliance": {
      "kyc": "passed",
      "jurisdiction": "VN",
      "sProof": {"type": "", "sectionHash": "", "proofValue": ""}
    },
    "custody": {
      "custodian": "did:example:bank",
      "since": "2025-01-01",
      "sProof": {"type": "", "sectionHash": "", "proofValue": ""}
    }
  },
  "proof": {"type": "", "proofValue": ""}
}`
