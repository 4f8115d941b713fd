package mempool

// retryEntry is a hash waiting to be looked up again.
type retryEntry struct {
	TimedHash
	misses   int // not-found answers so far
	failures int // transport failures so far
}

// retrySet holds the unresolved hashes of the resolution stage, keyed by hash
// so that a hash is never retried twice in the same pass. It is owned by the
// resolution goroutine.
type retrySet map[string]retryEntry

func newRetrySet(sizeHint int) retrySet {
	return make(retrySet, sizeHint)
}

// add inserts e unless its hash is already present. The first entry wins, so
// the earliest capture time of a hash is the one kept.
func (s retrySet) add(e retryEntry) bool {
	if _, ok := s[e.Hash]; ok {
		return false
	}

	s[e.Hash] = e
	return true
}

func (s retrySet) contains(hash string) bool {
	_, ok := s[hash]
	return ok
}
