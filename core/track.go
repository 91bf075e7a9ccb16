package core

import (
	"encoding/hex"
	"fmt"

	"github.com/sirupsen/logrus"
)

var trackLog = logrus.WithField("component", "track")

// trackEntry is a buffered write pending commit, along with the substate
// key it targets.
type trackEntry struct {
	key   SubstateKey
	value []byte
}

// Track is the buffered write layer wrapping a SubstateStore for the
// duration of one transaction (spec §4.1, §5). Reads fall through to the
// underlying store but are served from the local buffer once a key has been
// written in this transaction, so a transaction observes its own writes.
// Writes are only applied to the store on Commit; Abort discards them,
// leaving the store byte-identical to its pre-transaction state (spec §8
// "Atomicity").
type Track struct {
	store   SubstateStore
	txHash  [32]byte
	buffer  map[SubstateKey]trackEntry
	order   []SubstateKey
	nonce   uint64
	nonceOK bool
}

// NewTrack opens a Track over store for a transaction identified by txHash.
func NewTrack(store SubstateStore, txHash [32]byte) *Track {
	return &Track{
		store:  store,
		txHash: txHash,
		buffer: make(map[SubstateKey]trackEntry),
	}
}

func (t *Track) Read(key []byte) (Substate, bool, error) {
	return t.read(topKey(key))
}

func (t *Track) ReadChild(key, subkey []byte) (Substate, bool, error) {
	return t.read(childKey(key, subkey))
}

func (t *Track) read(k SubstateKey) (Substate, bool, error) {
	if e, ok := t.buffer[k]; ok {
		return Substate{Value: e.value}, true, nil
	}
	if k.SubKey != "" {
		subkey, err := hex.DecodeString(k.SubKey)
		if err != nil {
			return Substate{}, false, err
		}
		return t.store.ReadChild([]byte(k.Key), subkey)
	}
	return t.store.Read([]byte(k.Key))
}

// Write buffers a top-level substate write; it is not visible to the
// underlying store until Commit.
func (t *Track) Write(key, value []byte) error {
	return t.write(topKey(key), value)
}

// WriteChild buffers a child-keyed substate write (e.g. a vault under its
// owning component).
func (t *Track) WriteChild(key, subkey, value []byte) error {
	return t.write(childKey(key, subkey), value)
}

func (t *Track) write(k SubstateKey, value []byte) error {
	if _, seen := t.buffer[k]; !seen {
		t.order = append(t.order, k)
	}
	cpy := make([]byte, len(value))
	copy(cpy, value)
	t.buffer[k] = trackEntry{key: k, value: cpy}
	return nil
}

func (t *Track) GetEpoch() (uint64, error) { return t.store.GetEpoch() }

func (t *Track) GetNonce() (uint64, error) {
	if t.nonceOK {
		return t.nonce, nil
	}
	return t.store.GetNonce()
}

func (t *Track) BumpNonce() (uint64, error) {
	n, err := t.GetNonce()
	if err != nil {
		return 0, err
	}
	t.nonce = n + 1
	t.nonceOK = true
	return t.nonce, nil
}

// Commit applies every buffered write to the underlying store, in the order
// the host calls issued them (spec §5 "Ordering guarantees"). Each write
// receives a fresh, strictly increasing physical id from the store.
func (t *Track) Commit() error {
	for _, k := range t.order {
		e := t.buffer[k]
		var err error
		if k.SubKey == "" {
			_, err = t.store.Write([]byte(k.Key), e.value)
		} else {
			subkey, decErr := hex.DecodeString(k.SubKey)
			if decErr != nil {
				return decErr
			}
			_, err = t.store.WriteChild([]byte(k.Key), subkey, e.value)
		}
		if err != nil {
			return fmt.Errorf("commit %s: %w", substateKeyString(k), err)
		}
	}
	if t.nonceOK {
		if _, err := t.store.BumpNonce(); err != nil {
			return err
		}
	}
	trackLog.WithField("writes", len(t.order)).Debug("committed transaction")
	return nil
}

// Abort discards every buffered write. The underlying store is never
// touched, satisfying spec §5's "Abort semantics".
func (t *Track) Abort() {
	trackLog.WithField("writes", len(t.order)).Debug("aborted transaction, discarding buffer")
	t.buffer = make(map[SubstateKey]trackEntry)
	t.order = nil
}

