package tokenstore

import (
	"fmt"
	"os"
	"os/user"

	"github.com/google/uuid"

	"github.com/securebank/bank-portal/internal/session"
)

// New creates a long-lived token store for a single-user process such as
// the terminal client. The returned close function releases connections.
// Cookie stores are request-bound and built with NewCookie instead.
func New(cfg Config) (session.TokenStore, func() error, error) {
	noop := func() error { return nil }

	driver := cfg.Driver
	if driver == "" {
		driver = DriverFile
	}

	switch driver {
	case DriverMemory:
		return NewMemory(cfg), noop, nil
	case DriverFile:
		if cfg.File == nil || cfg.File.Path == "" {
			file := FileConfig{Path: DefaultFilePath()}
			if cfg.File != nil {
				file.Secret = cfg.File.Secret
			}
			cfg.File = &file
		}
		store, err := NewFile(cfg)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case DriverRedis:
		store, err := NewRedis(cfg)
		if err != nil {
			return nil, nil, err
		}
		holder := cfg.Redis.Holder
		if holder == "" {
			holder = DeviceID()
		}
		return store.For(holder), store.Close, nil
	case DriverCookie:
		return nil, nil, fmt.Errorf("cookie token store is bound to a request; use NewCookie")
	default:
		return nil, nil, fmt.Errorf("unsupported token store driver: %s", driver)
	}
}

// DeviceID derives a stable holder id for this machine and OS user.
func DeviceID() string {
	host, _ := os.Hostname()
	name := ""
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(host+"/"+name)).String()
}
