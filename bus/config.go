package bus

import "fmt"

// Config selects and parameterizes the Bus implementation (§6). Driver
// "memory" (default) uses the in-process gochannel transport; "nats" uses
// NATS Streaming.
type Config struct {
	Driver    string `json:"driver"`
	URL       string `json:"url"`
	ClusterID string `json:"cluster_id"`
	ClientID  string `json:"client_id"`
}

// New constructs a Bus from cfg. A nil or empty-driver cfg defaults to the
// in-process transport.
func New(cfg *Config) (Bus, error) {
	if cfg == nil || cfg.Driver == "" || cfg.Driver == "memory" {
		return NewInProcBus(), nil
	}
	switch cfg.Driver {
	case "nats":
		if cfg.URL == "" {
			return nil, fmt.Errorf("bus: nats driver requires url")
		}
		clusterID := cfg.ClusterID
		if clusterID == "" {
			clusterID = "mediator"
		}
		clientID := cfg.ClientID
		if clientID == "" {
			clientID = "mediator-client"
		}
		return NewNATSBus(clusterID, clientID, cfg.URL)
	default:
		return nil, fmt.Errorf("bus: unsupported driver %q", cfg.Driver)
	}
}
