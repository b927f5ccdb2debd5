package utils

import (
	"github.com/denisbrodbeck/machineid"
)

// HWID is an app-scoped, hashed machine identifier sent with auth requests.
// Empty when the platform does not expose a machine id.
var HWID = func() string {
	id, err := machineid.ProtectedID("ecorewards")
	if err != nil {
		return ""
	}
	return id
}()
