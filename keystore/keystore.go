// Package keystore owns the lifecycle of a deployment's scheme material: one
// setup that generates and persists the public parameters and master secret,
// and lazy reloads for every later process.
package keystore

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/medishare/cpabe-core/codec"
	"github.com/medishare/cpabe-core/mspabe"
	"github.com/medishare/cpabe-core/waters11"
)

// Scheme names accepted by NewCryptoContext, matched case-insensitively.
const (
	SchemeWaters11 = "WATERS11"
	SchemeMSPABE   = "MSPABE"
)

const (
	pubKeyFile    = "pub_key.json"
	masterKeyFile = "master_key.json"
)

type Config struct {
	Scheme  string // WATERS11 or MSPABE
	UniSize int    // attribute universe bound, WATERS11 only
	Dir     string // directory holding the persisted material
}

// CryptoContext binds a configured scheme to its persisted key material.
// Material is loaded from disk at most once per process.
type CryptoContext struct {
	cfg    Config
	scheme string

	mu     sync.Mutex
	loaded bool

	w11    *waters11.Waters11
	w11PK  *waters11.PubKey
	w11MSK *waters11.MasterKey

	msp    *mspabe.MSPABE
	mspPK  *mspabe.PubKey
	mspMSK *mspabe.MasterKey
}

// NewCryptoContext validates the configuration and builds the scheme
// instance. An unknown scheme name fails here, not at first use.
func NewCryptoContext(cfg Config) (*CryptoContext, error) {
	ctx := &CryptoContext{cfg: cfg, scheme: strings.ToUpper(cfg.Scheme)}
	switch ctx.scheme {
	case SchemeWaters11:
		w11, err := waters11.NewWaters11(cfg.UniSize)
		if err != nil {
			return nil, err
		}
		ctx.w11 = w11
	case SchemeMSPABE:
		ctx.msp = mspabe.NewMSPABE()
	default:
		return nil, errors.Errorf("keystore: unknown scheme %q", cfg.Scheme)
	}
	return ctx, nil
}

func (c *CryptoContext) Scheme() string { return c.scheme }

func (c *CryptoContext) pubKeyPath() string    { return filepath.Join(c.cfg.Dir, pubKeyFile) }
func (c *CryptoContext) masterKeyPath() string { return filepath.Join(c.cfg.Dir, masterKeyFile) }

// Initialize runs setup unless the deployment already has persisted material,
// in which case it reports alreadyConfigured and touches nothing. Presence of
// both files is the whole check; re-running setup would orphan every key and
// ciphertext issued so far.
func (c *CryptoContext) Initialize() (alreadyConfigured bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if fileExists(c.pubKeyPath()) && fileExists(c.masterKeyPath()) {
		return true, nil
	}

	if err := os.MkdirAll(c.cfg.Dir, 0o700); err != nil {
		return false, errors.Wrap(err, "keystore: creating key directory")
	}

	var pkVal, mskVal codec.Value
	switch c.scheme {
	case SchemeWaters11:
		pk, msk, err := c.w11.Setup()
		if err != nil {
			return false, err
		}
		c.w11PK, c.w11MSK = pk, msk
		pkVal, mskVal = pk.Value(), msk.Value()
	case SchemeMSPABE:
		pk, msk, err := c.msp.Setup()
		if err != nil {
			return false, err
		}
		c.mspPK, c.mspMSK = pk, msk
		pkVal, mskVal = pk.Value(), msk.Value()
	}

	if err := writeMaterial(c.pubKeyPath(), pkVal, 0o644); err != nil {
		return false, err
	}
	if err := writeMaterial(c.masterKeyPath(), mskVal, 0o600); err != nil {
		return false, err
	}
	if runtime.GOOS == "windows" {
		log.Printf("keystore: cannot restrict %s to owner-only on this platform", c.masterKeyPath())
	}

	c.loaded = true
	return false, nil
}

func writeMaterial(path string, v codec.Value, perm os.FileMode) error {
	raw, err := codec.EncodeTransport(v)
	if err != nil {
		return errors.Wrapf(err, "keystore: encoding %s", filepath.Base(path))
	}
	if err := os.WriteFile(path, raw, perm); err != nil {
		return errors.Wrapf(err, "keystore: writing %s", filepath.Base(path))
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (c *CryptoContext) loadLocked() error {
	if c.loaded {
		return nil
	}
	pkVal, err := readMaterial(c.pubKeyPath())
	if err != nil {
		return err
	}
	mskVal, err := readMaterial(c.masterKeyPath())
	if err != nil {
		return err
	}
	switch c.scheme {
	case SchemeWaters11:
		if c.w11PK, err = waters11.PubKeyFromValue(pkVal); err != nil {
			return err
		}
		if c.w11MSK, err = waters11.MasterKeyFromValue(mskVal); err != nil {
			return err
		}
	case SchemeMSPABE:
		if c.mspPK, err = mspabe.PubKeyFromValue(pkVal); err != nil {
			return err
		}
		if c.mspMSK, err = mspabe.MasterKeyFromValue(mskVal); err != nil {
			return err
		}
	}
	c.loaded = true
	return nil
}

func readMaterial(path string) (codec.Value, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "keystore: reading %s, run setup first", filepath.Base(path))
	}
	v, err := codec.DecodeTransport(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "keystore: decoding %s", filepath.Base(path))
	}
	return v, nil
}

// Waters11 returns the scheme instance and its loaded material. Fails when
// the context is configured for a different scheme or setup never ran.
func (c *CryptoContext) Waters11() (*waters11.Waters11, *waters11.PubKey, *waters11.MasterKey, error) {
	if c.scheme != SchemeWaters11 {
		return nil, nil, nil, errors.Errorf("keystore: context configured for %s", c.scheme)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(); err != nil {
		return nil, nil, nil, err
	}
	return c.w11, c.w11PK, c.w11MSK, nil
}

// MSPABE is the boolean-policy counterpart of Waters11.
func (c *CryptoContext) MSPABE() (*mspabe.MSPABE, *mspabe.PubKey, *mspabe.MasterKey, error) {
	if c.scheme != SchemeMSPABE {
		return nil, nil, nil, errors.Errorf("keystore: context configured for %s", c.scheme)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(); err != nil {
		return nil, nil, nil, err
	}
	return c.msp, c.mspPK, c.mspMSK, nil
}
