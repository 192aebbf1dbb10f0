package fabric

import (
	"strings"
	"testing"

	"github.com/ctiport/bcauth/internal/config"
)

func testNetwork() config.Fabric {
	return config.Fabric{
		NetworkDir: "/opt/fabric/test-network",
		Channel:    "mychannel",
		Orderer: config.Orderer{
			Address:             "localhost:7050",
			TLSHostnameOverride: "orderer.example.com",
			CAFile:              "/opt/fabric/orderer-ca.pem",
		},
		DefaultOrg: "org1",
		Orgs: map[string]config.Org{
			"org1": {
				MSPID:         "Org1MSP",
				TLSRootCert:   "/opt/fabric/org1-ca.crt",
				MSPConfigPath: "/opt/fabric/org1-msp",
				PeerAddress:   "localhost:7051",
			},
			"org2": {
				MSPID:         "Org2MSP",
				TLSRootCert:   "/opt/fabric/org2-ca.crt",
				MSPConfigPath: "/opt/fabric/org2-msp",
				PeerAddress:   "localhost:9051",
			},
		},
		Endorsers: []config.Endorser{
			{Address: "localhost:7051", TLSRootCert: "/opt/fabric/org1-ca.crt"},
			{Address: "localhost:9051", TLSRootCert: "/opt/fabric/org2-ca.crt"},
		},
	}
}

func TestCommandDefaultOrg(t *testing.T) {
	b := NewBuilder(testNetwork())
	cmd, err := b.Command("", "pat", "invoke", []string{"ro01", "rs", "1700000000", "sig"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"cd /opt/fabric/test-network; ",
		"export CORE_PEER_LOCALMSPID='Org1MSP'; ",
		"export CORE_PEER_ADDRESS=localhost:7051; ",
		"peer chaincode invoke -o localhost:7050",
		"--ordererTLSHostnameOverride orderer.example.com",
		"--tls --cafile /opt/fabric/orderer-ca.pem",
		"-C mychannel -n pat",
		"--peerAddresses localhost:7051 --tlsRootCertFiles /opt/fabric/org1-ca.crt",
		"--peerAddresses localhost:9051 --tlsRootCertFiles /opt/fabric/org2-ca.crt",
		`-c '{"function":"invoke","Args":["ro01", "rs", "1700000000", "sig"]}'`,
	} {
		if !strings.Contains(cmd, want) {
			t.Errorf("command missing %q\ncommand: %s", want, cmd)
		}
	}
}

func TestCommandSelectsOrg(t *testing.T) {
	b := NewBuilder(testNetwork())
	cmd, err := b.Command("org2", "rreg", "list", []string{"pat-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(cmd, "CORE_PEER_LOCALMSPID='Org2MSP'") {
		t.Errorf("expected org2 MSP id, got: %s", cmd)
	}
	if !strings.Contains(cmd, "CORE_PEER_ADDRESS=localhost:9051") {
		t.Errorf("expected org2 peer address, got: %s", cmd)
	}
}

func TestCommandUnknownOrg(t *testing.T) {
	b := NewBuilder(testNetwork())
	if _, err := b.Command("org9", "pat", "invoke", nil); err == nil {
		t.Fatal("expected error for unknown org")
	}
}

func TestChannelInfoCommand(t *testing.T) {
	b := NewBuilder(testNetwork())
	cmd, err := b.ChannelInfoCommand()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(cmd, "peer channel getinfo -c mychannel") {
		t.Errorf("unexpected command: %s", cmd)
	}
}

func TestEncodeArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "plain strings",
			args: []string{"a", "b"},
			want: `["a", "b"]`,
		},
		{
			name: "nil args",
			args: nil,
			want: `[]`,
		},
		{
			name: "permission descriptor keeps escaped scope quotes",
			args: []string{`{rid-1,\"read:write\"}`},
			want: `["{rid-1,\"read:write\"}"]`,
		},
		{
			name: "single quotes become double quotes",
			args: []string{"o'clock"},
			want: `["o"clock"]`,
		},
		{
			name: "embedded delimiters preserved",
			args: []string{"read, write", "a:b"},
			want: `["read, write", "a:b"]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeArgs(tt.args); got != tt.want {
				t.Errorf("encodeArgs(%v) = %s, want %s", tt.args, got, tt.want)
			}
		})
	}
}
