package config

import "testing"

func TestParamsForNetwork(t *testing.T) {
	cases := map[string]bool{
		"mainnet": true,
		"testnet": true,
		"signet":  true,
		"regtest": true,
		"unknown": false,
	}
	for network, wantOK := range cases {
		params, err := paramsForNetwork(network)
		if wantOK && err != nil {
			t.Errorf("paramsForNetwork(%q) = %v, want no error", network, err)
		}
		if !wantOK && err == nil {
			t.Errorf("paramsForNetwork(%q) = %v, want an error", network, params)
		}
	}
}

func TestLoadRequiresBitcoinRPCCredentials(t *testing.T) {
	t.Setenv("BITCOIN_RPC_USER", "")
	t.Setenv("BITCOIN_RPC_PASS", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected Load to fail without BITCOIN_RPC_USER/BITCOIN_RPC_PASS")
	}
}

func TestLoadResolvesDefaults(t *testing.T) {
	t.Setenv("BITCOIN_RPC_USER", "rpcuser")
	t.Setenv("BITCOIN_RPC_PASS", "rpcpass")
	t.Setenv("NETWORK", "")
	t.Setenv("SELF_ISSUANCE_ACTIVATION_HEIGHT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network != "mainnet" {
		t.Fatalf("Network = %q, want mainnet", cfg.Network)
	}
	if cfg.Params == nil {
		t.Fatal("expected Params to be resolved")
	}
	if cfg.SelfIssuanceActivationHeight != 111111 {
		t.Fatalf("SelfIssuanceActivationHeight = %d, want 111111", cfg.SelfIssuanceActivationHeight)
	}
}
