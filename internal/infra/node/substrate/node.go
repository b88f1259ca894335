package substrate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clad-sovereign/clad-dashboard/internal/callcodec"
	"github.com/clad-sovereign/clad-dashboard/internal/nodeconn"
	"github.com/clad-sovereign/clad-dashboard/internal/pkg/transport/wsrpc"
)

// ChainInfo is the identity of a connected node, captured once at dial time.
type ChainInfo struct {
	GenesisHash string
	ChainName   string
	NodeName    string
	NodeVersion string
}

// Node is one live connection to a chain node. It satisfies the connection
// manager's handle contract and carries every chain read the dashboard
// performs.
type Node struct {
	conn    *wsrpc.Conn
	info    ChainInfo
	profile *callcodec.Profile

	// hasMultisig reports whether the runtime includes a multisig pallet,
	// detected from the metadata blob at dial time.
	hasMultisig bool
}

var _ nodeconn.Handle = (*Node)(nil)

// Dialer opens substrate node connections.
type Dialer struct{}

var _ nodeconn.Dialer = (*Dialer)(nil)

// NewDialer returns the production dialer.
func NewDialer() *Dialer {
	return &Dialer{}
}

// Dial connects to the endpoint, captures the chain identity, and builds the
// codec profile from the node's system properties. Any failure tears the
// transport back down.
func (d *Dialer) Dial(ctx context.Context, endpoint string) (nodeconn.Handle, error) {
	conn, err := wsrpc.Dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	node, err := initNode(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return node, nil
}

// initNode performs the post-handshake reads every connection needs: genesis
// hash, chain identity, system properties, and multisig pallet detection.
func initNode(ctx context.Context, conn *wsrpc.Conn) (*Node, error) {
	node := &Node{conn: conn, profile: callcodec.DefaultProfile()}

	if err := conn.Call(ctx, &node.info.GenesisHash, "chain_getBlockHash", 0); err != nil {
		return nil, fmt.Errorf("reading genesis hash: %w", err)
	}
	if node.info.GenesisHash == "" {
		return nil, fmt.Errorf("node returned no genesis hash")
	}

	if err := conn.Call(ctx, &node.info.ChainName, "system_chain"); err != nil {
		return nil, fmt.Errorf("reading chain name: %w", err)
	}
	if err := conn.Call(ctx, &node.info.NodeName, "system_name"); err != nil {
		return nil, fmt.Errorf("reading node name: %w", err)
	}
	if err := conn.Call(ctx, &node.info.NodeVersion, "system_version"); err != nil {
		return nil, fmt.Errorf("reading node version: %w", err)
	}

	var props systemProperties
	if err := conn.Call(ctx, &props, "system_properties"); err != nil {
		return nil, fmt.Errorf("reading system properties: %w", err)
	}
	props.applyTo(node.profile)

	hasMultisig, err := detectMultisigPallet(ctx, conn)
	if err != nil {
		return nil, err
	}
	node.hasMultisig = hasMultisig

	return node, nil
}

// GenesisHash identifies the connected chain.
func (n *Node) GenesisHash() string {
	return n.info.GenesisHash
}

// Done is closed when the transport is lost.
func (n *Node) Done() <-chan struct{} {
	return n.conn.Closed()
}

// Close tears the connection down.
func (n *Node) Close() error {
	return n.conn.Close()
}

// Info returns the identity captured at dial time.
func (n *Node) Info() ChainInfo {
	return n.info
}

// Profile returns the codec profile for this connection.
func (n *Node) Profile() *callcodec.Profile {
	return n.profile
}

// systemProperties is the node's self-description of its tokens. Symbols and
// decimals arrive either as scalars or as parallel arrays; when arrays are
// present the first entry describes the native token and the second, if any,
// the ledger token.
type systemProperties struct {
	SS58Format    *uint8          `json:"ss58Format"`
	TokenSymbol   json.RawMessage `json:"tokenSymbol"`
	TokenDecimals json.RawMessage `json:"tokenDecimals"`
}

func (p systemProperties) applyTo(profile *callcodec.Profile) {
	if p.SS58Format != nil {
		profile.SS58Prefix = *p.SS58Format
	}

	symbols := stringValues(p.TokenSymbol)
	if len(symbols) > 0 {
		profile.NativeSymbol = symbols[0]
	}
	if len(symbols) > 1 {
		profile.TokenSymbol = symbols[1]
	}

	decimals := uintValues(p.TokenDecimals)
	if len(decimals) > 0 {
		profile.NativeDecimals = decimals[0]
	}
	if len(decimals) > 1 {
		profile.TokenDecimals = decimals[1]
	}
}

func stringValues(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	return nil
}

func uintValues(raw json.RawMessage) []uint8 {
	if len(raw) == 0 {
		return nil
	}
	var one uint8
	if err := json.Unmarshal(raw, &one); err == nil {
		return []uint8{one}
	}
	var many []uint8
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	return nil
}
