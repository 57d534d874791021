package publish

import (
	"fmt"
	"math/big"
	"time"
)

// Config holds the publisher's fee/gas policy. It never chooses fee
// policy beyond the configured ceiling; the ceiling and tip are
// operator-set safety bounds, not auction inputs.
type Config struct {
	// MaxFeePerGas is the absolute per-gas ceiling (wei): the publisher
	// never sends at more than this, and sizes required balance against
	// it rather than against the predicted effective fee.
	MaxFeePerGas *big.Int `mapstructure:"max_fee_per_gas_wei"  yaml:"max_fee_per_gas_wei"`

	// MaxPriorityFeePerGas is the priority tip (wei) used on every send
	// and added to base fee when predicting effective cost.
	MaxPriorityFeePerGas *big.Int `mapstructure:"max_priority_fee_per_gas_wei" yaml:"max_priority_fee_per_gas_wei"`

	// GasLimit is the uniform gas limit applied to every transaction in
	// the batch.
	GasLimit uint64 `mapstructure:"gas_limit" yaml:"gas_limit"`

	// GateRetryInterval is the cancellable sleep between gate polls.
	GateRetryInterval time.Duration `mapstructure:"gate_retry_interval" yaml:"gate_retry_interval"`

	// SendRetryInterval is the cancellable sleep between per-send retries.
	SendRetryInterval time.Duration `mapstructure:"send_retry_interval" yaml:"send_retry_interval"`

	// RevertRetryInterval is the cancellable sleep after a non-fatal
	// revert, before the outer loop re-gates and re-sends.
	RevertRetryInterval time.Duration `mapstructure:"revert_retry_interval" yaml:"revert_retry_interval"`

	// ReceiptTimeout bounds each individual receipt poll.
	ReceiptTimeout time.Duration `mapstructure:"receipt_timeout" yaml:"receipt_timeout"`
}

// DefaultConfig returns conservative defaults: 60s for every cancellable
// wait, a 300s per-tx receipt budget.
func DefaultConfig() Config {
	return Config{
		MaxFeePerGas:         big.NewInt(0),
		MaxPriorityFeePerGas: big.NewInt(0),
		GasLimit:             0,
		GateRetryInterval:    60 * time.Second,
		SendRetryInterval:    60 * time.Second,
		RevertRetryInterval:  60 * time.Second,
		ReceiptTimeout:       300 * time.Second,
	}
}

// Validate rejects configuration that would make publishing meaningless:
// a zero fee ceiling or gas limit would make every gate check or send
// fail by construction.
func (c Config) Validate() error {
	if c.MaxFeePerGas == nil || c.MaxFeePerGas.Sign() <= 0 {
		return fmt.Errorf("max_fee_per_gas_wei must be positive")
	}
	if c.MaxPriorityFeePerGas == nil || c.MaxPriorityFeePerGas.Sign() < 0 {
		return fmt.Errorf("max_priority_fee_per_gas_wei must not be negative")
	}
	if c.GasLimit == 0 {
		return fmt.Errorf("gas_limit must be positive")
	}
	if c.GateRetryInterval <= 0 || c.SendRetryInterval <= 0 || c.RevertRetryInterval <= 0 {
		return fmt.Errorf("retry intervals must be positive")
	}
	if c.ReceiptTimeout <= 0 {
		return fmt.Errorf("receipt_timeout must be positive")
	}
	return nil
}
