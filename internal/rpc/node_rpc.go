package rpc

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"

	"github.com/beancore/beanminer/internal/config"
	"github.com/beancore/beanminer/internal/header"
	"github.com/beancore/beanminer/pkg/semver"
)

// Compatible daemon JSON-RPC API versions
var compatibleChainServerAPIs = []semver.Semver{
	semver.NewSemver(6, 0, 0),
	semver.NewSemver(7, 0, 0),
	semver.NewSemver(8, 0, 0),
}

// NodeClient wraps the daemon RPC client. It is the layer that turns chain
// queries into the raw 80-byte headers the hashing core consumes.
type NodeClient struct {
	client *rpcclient.Client
	config *config.NodeConfig
}

// NewNodeClient connects to the daemon, in HTTP POST mode for bitcoind-style
// daemons or WebSocket mode (with a JSON-RPC API version check) for btcd.
func NewNodeClient(cfg *config.NodeConfig) (*NodeClient, error) {
	var certs []byte
	var err error

	if !cfg.DisableTLS && cfg.Cert != "" {
		certs, err = os.ReadFile(cfg.Cert)
		if err != nil {
			return nil, fmt.Errorf("failed to read certificate: %w", err)
		}
	}

	var connCfg *rpcclient.ConnConfig
	if cfg.HTTPMode {
		connCfg = &rpcclient.ConnConfig{
			Host:         cfg.Host,
			User:         cfg.User,
			Pass:         cfg.Pass,
			HTTPPostMode: true,
			DisableTLS:   cfg.DisableTLS,
			Certificates: certs,
		}
	} else {
		connCfg = &rpcclient.ConnConfig{
			Host:                 cfg.Host,
			Endpoint:             "ws",
			User:                 cfg.User,
			Pass:                 cfg.Pass,
			Certificates:         certs,
			DisableTLS:           cfg.DisableTLS,
			DisableAutoReconnect: false,
		}
	}

	client, err := rpcclient.New(connCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create RPC client: %w", err)
	}

	nc := &NodeClient{client: client, config: cfg}

	// bitcoind does not advertise the btcd JSON-RPC API version, so the
	// compatibility check only applies in WebSocket mode.
	if !cfg.HTTPMode {
		nodeVer, err := nc.checkAPIVersion()
		if err != nil {
			client.Shutdown()
			return nil, err
		}
		log.Printf("Connected to daemon RPC %s, API version %s", cfg.Host, nodeVer)
	} else {
		log.Printf("Connected to daemon RPC %s (HTTP mode)", cfg.Host)
	}

	return nc, nil
}

// checkAPIVersion ensures the RPC server has a compatible API version.
func (c *NodeClient) checkAPIVersion() (semver.Semver, error) {
	ver, err := c.client.Version()
	if err != nil {
		return semver.Semver{}, fmt.Errorf("unable to get node RPC version: %w", err)
	}

	apiVer := ver["btcdjsonrpcapi"]
	nodeVer := semver.NewSemver(apiVer.Major, apiVer.Minor, apiVer.Patch)

	if !semver.AnyCompatible(compatibleChainServerAPIs, nodeVer) {
		return nodeVer, fmt.Errorf("node JSON-RPC server does not have a "+
			"compatible API version. Advertises %v but requires one of: %v",
			nodeVer, compatibleChainServerAPIs)
	}
	return nodeVer, nil
}

// Close closes the RPC client connection
func (c *NodeClient) Close() {
	c.client.Shutdown()
}

// BestHeight returns the current chain tip height
func (c *NodeClient) BestHeight() (int64, error) {
	return c.client.GetBlockCount()
}

// ResolveHeight turns a possibly-negative height into an absolute one.
// Negative values index back from the next block: -1 is the current tip.
func (c *NodeClient) ResolveHeight(height int64) (int64, error) {
	if height >= 0 {
		return height, nil
	}
	count, err := c.client.GetBlockCount()
	if err != nil {
		return 0, fmt.Errorf("failed to get block count: %w", err)
	}
	resolved := count + height + 1
	if resolved < 0 {
		return 0, fmt.Errorf("relative height %d reaches before genesis (tip is %d)", height, count)
	}
	return resolved, nil
}

// HeaderByHeight fetches the header at the given (possibly negative) height,
// returning it with the resolved absolute height.
func (c *NodeClient) HeaderByHeight(height int64) (header.BlockHeader, int64, error) {
	resolved, err := c.ResolveHeight(height)
	if err != nil {
		return header.BlockHeader{}, 0, err
	}

	hash, err := c.client.GetBlockHash(resolved)
	if err != nil {
		return header.BlockHeader{}, 0, fmt.Errorf("failed to get block hash at height %d: %w", resolved, err)
	}

	h, err := c.headerByHash(hash)
	if err != nil {
		return header.BlockHeader{}, 0, err
	}
	return h, resolved, nil
}

// HeaderByHash fetches the header with the given display-order hash.
func (c *NodeClient) HeaderByHash(hashStr string) (header.BlockHeader, error) {
	hash, err := chainhash.NewHashFromStr(hashStr)
	if err != nil {
		return header.BlockHeader{}, fmt.Errorf("invalid block hash %q: %w", hashStr, err)
	}
	return c.headerByHash(hash)
}

// headerByHash round-trips the daemon's header through its 80-byte wire form
// so the rest of the system only ever sees bytes our codec validated.
func (c *NodeClient) headerByHash(hash *chainhash.Hash) (header.BlockHeader, error) {
	wireHeader, err := c.client.GetBlockHeader(hash)
	if err != nil {
		return header.BlockHeader{}, fmt.Errorf("failed to get block header %s: %w", hash, err)
	}

	var buf bytes.Buffer
	if err := wireHeader.Serialize(&buf); err != nil {
		return header.BlockHeader{}, fmt.Errorf("failed to serialize block header: %w", err)
	}
	return header.Decode(buf.Bytes())
}

// GetClient returns the underlying RPC client for advanced operations
func (c *NodeClient) GetClient() *rpcclient.Client {
	return c.client
}
