// Package config loads the gateway's deployment configuration: where the
// fabric network lives on disk, which org identities the peer CLI may act
// as, the external endpoints the UMA flow redirects through, and the
// bridge tuning knobs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the config file location when set.
const EnvConfigPath = "BCAUTH_CONFIG"

// Org is one peer identity the CLI can act as.
type Org struct {
	MSPID         string `yaml:"msp_id"`
	TLSRootCert   string `yaml:"tls_root_cert"`
	MSPConfigPath string `yaml:"msp_config_path"`
	PeerAddress   string `yaml:"peer_address"`
}

// Endorser is one --peerAddresses/--tlsRootCertFiles pair appended to
// every invoke so the transaction gathers endorsements from both orgs.
type Endorser struct {
	Address     string `yaml:"address"`
	TLSRootCert string `yaml:"tls_root_cert"`
}

// Orderer locates the ordering service for submitted transactions.
type Orderer struct {
	Address             string `yaml:"address"`
	TLSHostnameOverride string `yaml:"tls_hostname_override"`
	CAFile              string `yaml:"ca_file"`
}

// Fabric describes the blockchain network as seen from the peer CLI.
type Fabric struct {
	NetworkDir string         `yaml:"network_dir"`
	Channel    string         `yaml:"channel"`
	Orderer    Orderer        `yaml:"orderer"`
	DefaultOrg string         `yaml:"default_org"`
	Orgs       map[string]Org `yaml:"orgs"`
	Endorsers  []Endorser     `yaml:"endorsers"`
}

// Bridge tunes the command bridge. The cool-down keeps back-to-back peer
// invocations from interleaving output; the timeout bounds a hung call.
type Bridge struct {
	CooldownSeconds int `yaml:"cooldown_seconds"`
	TimeoutSeconds  int `yaml:"timeout_seconds"`
}

// Cooldown returns the configured cool-down as a duration.
func (b Bridge) Cooldown() time.Duration {
	return time.Duration(b.CooldownSeconds) * time.Second
}

// Timeout returns the configured per-invocation timeout as a duration.
func (b Bridge) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// UMA holds the flow endpoints and the deployment-bound protection PAT
// used by the permission and introspection steps.
type UMA struct {
	// ProtectionPAT is the resource server's PAT for perm/intro calls.
	// The flow does not carry a per-request PAT at those steps.
	ProtectionPAT string `yaml:"protection_pat"`
	// RegistrationEndpoint receives the post-PAT redirect.
	RegistrationEndpoint string `yaml:"registration_endpoint"`
	// Issuer is the iss value minted into claim tokens.
	Issuer string `yaml:"issuer"`
	// TokenEndpoint is handed back to the requesting party after
	// claims gathering.
	TokenEndpoint string `yaml:"token_endpoint"`
}

// Config is the root of the YAML deployment configuration.
type Config struct {
	Listen         string `yaml:"listen"`
	CredentialFile string `yaml:"credential_file"`
	AuditLog       string `yaml:"audit_log"`
	Fabric         Fabric `yaml:"fabric"`
	Bridge         Bridge `yaml:"bridge"`
	UMA            UMA    `yaml:"uma"`
}

// Default returns the built-in configuration matching the reference
// test-network deployment.
func Default() *Config {
	net := "/home/ubuntu/project-bcauth/fabric-samples/test-network"
	org1CA := net + "/organizations/peerOrganizations/org1.example.com/peers/peer0.org1.example.com/tls/ca.crt"
	org2CA := net + "/organizations/peerOrganizations/org2.example.com/peers/peer0.org2.example.com/tls/ca.crt"
	return &Config{
		Listen:         ":8888",
		CredentialFile: "./authenDB/user.txt",
		Fabric: Fabric{
			NetworkDir: net,
			Channel:    "mychannel",
			Orderer: Orderer{
				Address:             "localhost:7050",
				TLSHostnameOverride: "orderer.example.com",
				CAFile:              net + "/organizations/ordererOrganizations/example.com/orderers/orderer.example.com/msp/tlscacerts/tlsca.example.com-cert.pem",
			},
			DefaultOrg: "org1",
			Orgs: map[string]Org{
				"org1": {
					MSPID:         "Org1MSP",
					TLSRootCert:   org1CA,
					MSPConfigPath: net + "/organizations/peerOrganizations/org1.example.com/users/Admin@org1.example.com/msp",
					PeerAddress:   "localhost:7051",
				},
				"org2": {
					MSPID:         "Org2MSP",
					TLSRootCert:   org2CA,
					MSPConfigPath: net + "/organizations/peerOrganizations/org2.example.com/users/Admin@org2.example.com/msp",
					PeerAddress:   "localhost:9051",
				},
			},
			Endorsers: []Endorser{
				{Address: "localhost:7051", TLSRootCert: org1CA},
				{Address: "localhost:9051", TLSRootCert: org2CA},
			},
		},
		Bridge: Bridge{
			CooldownSeconds: 3,
			TimeoutSeconds:  120,
		},
		UMA: UMA{
			ProtectionPAT:        "0xddb5ab8c5405830359d2af4ec8d4bdf27bc4b8ee7d20f64ec1a71a634e551",
			RegistrationEndpoint: "http://fl-server.ctiport.net:8080/reg-resource",
			Issuer:               "http://authz-blockchain.ctiport.net:8888/authen",
			TokenEndpoint:        "http://authz-blockchain.ctiport.net:8888/token",
		},
	}
}

// Load reads configuration from the given YAML file. An empty path falls
// back to $BCAUTH_CONFIG, then to defaults. A missing file returns
// defaults; invalid YAML returns an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Fabric.DefaultOrg == "" {
		return fmt.Errorf("config: fabric.default_org must be set")
	}
	if _, ok := c.Fabric.Orgs[c.Fabric.DefaultOrg]; !ok {
		return fmt.Errorf("config: fabric.default_org %q has no identity entry", c.Fabric.DefaultOrg)
	}
	if c.Bridge.CooldownSeconds < 0 {
		return fmt.Errorf("config: bridge.cooldown_seconds must not be negative")
	}
	if c.Bridge.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: bridge.timeout_seconds must be positive")
	}
	return nil
}
