// Package jsonx is the JSON codec used for outbound API traffic (Solana RPC,
// price feeds, notification channels, queue payloads).
package jsonx

import (
	"github.com/bytedance/sonic"
)

// Marshal encodes v with sonic.
func Marshal(v interface{}) ([]byte, error) {
	return sonic.ConfigStd.Marshal(v)
}

// Unmarshal decodes data into v with sonic.
func Unmarshal(data []byte, v interface{}) error {
	return sonic.ConfigStd.Unmarshal(data, v)
}
