package main

import (
	"fmt"

	"github.com/spf13/cobra"

	grpctls "github.com/protoloom/protoloom/pkg/tls"
)

var (
	tlsCertCommonName string
	tlsCertDNSNames   []string
	tlsCertOutCert    string
	tlsCertOutKey     string
)

var tlsGenCertCmd = &cobra.Command{
	Use:   "gen-cert",
	Short: "Generate a self-signed certificate for local TLS testing",
	Long: `gen-cert creates a self-signed ECDSA certificate and private key, suitable
for exercising --tls against a local gRPC server without a real CA. Reuse
the output with --tls-server-ca (and, for a self-signed server, --tls
itself) on "protoloom call" and "protoloom stream".`,
	Example: `  protoloom tls gen-cert --common-name localhost --out-cert ./dev.crt --out-key ./dev.key`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := grpctls.DefaultCertificateConfig()
		if tlsCertCommonName != "" {
			cfg.CommonName = tlsCertCommonName
		}
		if len(tlsCertDNSNames) > 0 {
			cfg.DNSNames = tlsCertDNSNames
		}

		cert, err := grpctls.GenerateAndSave(cfg, tlsCertOutCert, tlsCertOutKey)
		if err != nil {
			return fmt.Errorf("generate certificate: %w", err)
		}
		info := grpctls.GetCertificateInfo(cert.Certificate)
		return printJSON(info)
	},
}

var tlsCmd = &cobra.Command{
	Use:   "tls",
	Short: "TLS development helpers",
}

func init() {
	tlsGenCertCmd.Flags().StringVar(&tlsCertCommonName, "common-name", "localhost", "Certificate common name")
	tlsGenCertCmd.Flags().StringArrayVar(&tlsCertDNSNames, "dns-name", nil, "Additional DNS SAN; repeatable (default: localhost, 127.0.0.1, ::1)")
	tlsGenCertCmd.Flags().StringVar(&tlsCertOutCert, "out-cert", "./protoloom-dev.crt", "Output certificate path")
	tlsGenCertCmd.Flags().StringVar(&tlsCertOutKey, "out-key", "./protoloom-dev.key", "Output private key path")
	tlsCmd.AddCommand(tlsGenCertCmd)
	rootCmd.AddCommand(tlsCmd)
}
