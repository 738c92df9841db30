package id

import "github.com/rs/xid"

// GetXid returns a 20 character id, used to correlate one job run in logs.
func GetXid() string {
	return xid.New().String()
}
