// Package fabric turns structured ledger requests into peer CLI command
// lines, executes them one at a time, and recovers a normalized
// {outcome, payload} result from the CLI's loosely formatted output.
package fabric

import (
	"fmt"
	"strings"

	"github.com/ctiport/bcauth/internal/config"
)

// Builder assembles peer CLI command lines. It is a pure function of its
// inputs plus the static network configuration: no I/O, no side effects.
type Builder struct {
	cfg config.Fabric
}

// NewBuilder creates a Builder over the given network configuration.
func NewBuilder(cfg config.Fabric) *Builder {
	return &Builder{cfg: cfg}
}

// Command builds the full shell command for one chaincode invocation.
// An empty org selects the configured default identity.
func (b *Builder) Command(org, chaincode, function string, args []string) (string, error) {
	if org == "" {
		org = b.cfg.DefaultOrg
	}
	id, ok := b.cfg.Orgs[org]
	if !ok {
		return "", fmt.Errorf("unknown org %q", org)
	}

	var sb strings.Builder
	b.writeEnv(&sb, id)
	sb.WriteString("peer chaincode invoke")
	sb.WriteString(" -o " + b.cfg.Orderer.Address)
	sb.WriteString(" --ordererTLSHostnameOverride " + b.cfg.Orderer.TLSHostnameOverride)
	sb.WriteString(" --tls --cafile " + b.cfg.Orderer.CAFile)
	sb.WriteString(" -C " + b.cfg.Channel)
	sb.WriteString(" -n " + chaincode)
	for _, e := range b.cfg.Endorsers {
		sb.WriteString(" --peerAddresses " + e.Address)
		sb.WriteString(" --tlsRootCertFiles " + e.TLSRootCert)
	}
	sb.WriteString(" -c '")
	sb.WriteString(fmt.Sprintf(`{"function":%q,"Args":%s}`, function, encodeArgs(args)))
	sb.WriteString("'")
	return sb.String(), nil
}

// ChannelInfoCommand builds the command reporting channel block info.
func (b *Builder) ChannelInfoCommand() (string, error) {
	id, ok := b.cfg.Orgs[b.cfg.DefaultOrg]
	if !ok {
		return "", fmt.Errorf("unknown org %q", b.cfg.DefaultOrg)
	}
	var sb strings.Builder
	b.writeEnv(&sb, id)
	sb.WriteString("peer channel getinfo -c " + b.cfg.Channel)
	return sb.String(), nil
}

func (b *Builder) writeEnv(sb *strings.Builder, id config.Org) {
	sb.WriteString("cd " + b.cfg.NetworkDir + "; ")
	sb.WriteString("export PATH=" + b.cfg.NetworkDir + "/../bin:$PATH; ")
	sb.WriteString("export FABRIC_CFG_PATH=" + b.cfg.NetworkDir + "/../config/; ")
	sb.WriteString("export CORE_PEER_TLS_ENABLED=true; ")
	sb.WriteString("export CORE_PEER_LOCALMSPID='" + id.MSPID + "'; ")
	sb.WriteString("export CORE_PEER_TLS_ROOTCERT_FILE=" + id.TLSRootCert + "; ")
	sb.WriteString("export CORE_PEER_MSPCONFIGPATH=" + id.MSPConfigPath + "; ")
	sb.WriteString("export CORE_PEER_ADDRESS=" + id.PeerAddress + "; ")
}

// encodeArgs renders args as the JSON array of strings the peer CLI
// expects in -c. Arg content passes through verbatim: callers that embed
// quoting (the perm scope descriptor) supply it already escaped as \"
// and it must reach the CLI exactly that way, so no re-escaping happens
// here. Single quotes are normalized to double quotes and embedded
// delimiters are preserved literally.
func encodeArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = `"` + strings.ReplaceAll(a, "'", `"`) + `"`
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
