package cdb

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicWriterFinishReplacesDest(t *testing.T) {
	assert := newAsserter(t)

	dest := tempDest(t, "cdb-atomic-")

	aw, err := Create(dest)
	assert(err == nil, "Create: %s", err)

	assert(aw.Add([]byte("k"), []byte("v")) == nil, "Add")

	_, err = aw.Finish()
	assert(err == nil, "Finish: %s", err)

	_, err = os.Stat(dest)
	assert(err == nil, "dest should exist after Finish: %s", err)

	entries, err := filepath.Glob(dest + ".tmp.*")
	assert(err == nil, "Glob: %s", err)
	assert(len(entries) == 0, "temp file should be gone after Finish, saw %v", entries)

	img, err := OpenFile(dest)
	assert(err == nil, "OpenFile(dest): %s", err)
	defer img.Close()

	rd, err := Open(img)
	assert(err == nil, "Open: %s", err)

	v, ok := rd.Get([]byte("k"))
	assert(ok && string(v) == "v", "Get(k): exp v, saw %q ok=%v", v, ok)
}

func TestAtomicWriterAbortLeavesDestUntouched(t *testing.T) {
	assert := newAsserter(t)

	dest := tempDest(t, "cdb-atomic-")

	aw, err := Create(dest)
	assert(err == nil, "Create: %s", err)
	assert(aw.Add([]byte("k"), []byte("v")) == nil, "Add")

	aw.Abort()

	_, err = os.Stat(dest)
	assert(os.IsNotExist(err), "dest should not exist after Abort, stat err=%v", err)

	entries, err := filepath.Glob(dest + ".tmp.*")
	assert(err == nil, "Glob: %s", err)
	assert(len(entries) == 0, "temp file should be removed after Abort, saw %v", entries)
}

func TestAtomicWriterFinishAfterDoneFails(t *testing.T) {
	assert := newAsserter(t)

	dest := tempDest(t, "cdb-atomic-")

	aw, err := Create(dest)
	assert(err == nil, "Create: %s", err)

	_, err = aw.Finish()
	assert(err == nil, "first Finish: %s", err)

	_, err = aw.Finish()
	assert(errors.Is(err, ErrClosed), "second Finish: exp ErrClosed, saw %v", err)
}

func TestAtomicWriterDoesNotOverwriteDestOnFailure(t *testing.T) {
	assert := newAsserter(t)

	dest := tempDest(t, "cdb-atomic-")
	assert(ioutil.WriteFile(dest, []byte("original contents"), 0600) == nil, "seed dest")

	aw, err := Create(dest)
	assert(err == nil, "Create: %s", err)
	aw.Abort()

	got, err := ioutil.ReadFile(dest)
	assert(err == nil, "ReadFile: %s", err)
	assert(string(got) == "original contents", "dest mutated despite Abort: %q", got)
}

func TestAtomicWriterSetPermissions(t *testing.T) {
	assert := newAsserter(t)

	dest := tempDest(t, "cdb-atomic-")

	aw, err := Create(dest)
	assert(err == nil, "Create: %s", err)
	assert(aw.SetPermissions(0640) == nil, "SetPermissions")
	assert(aw.Add([]byte("k"), []byte("v")) == nil, "Add")

	_, err = aw.Finish()
	assert(err == nil, "Finish: %s", err)

	st, err := os.Stat(dest)
	assert(err == nil, "Stat: %s", err)
	assert(st.Mode().Perm() == 0640, "exp perm 0640, saw %v", st.Mode().Perm())
}

func TestVerifyChecksum(t *testing.T) {
	assert := newAsserter(t)

	dest := tempDest(t, "cdb-atomic-")

	aw, err := Create(dest)
	assert(err == nil, "Create: %s", err)
	for i, k := range keyw {
		assert(aw.Add([]byte(k), []byte{byte(i)}) == nil, "Add(%q)", k)
	}

	sum, err := aw.Finish()
	assert(err == nil, "Finish: %s", err)

	ok, err := VerifyChecksum(dest, sum.SHA512_256)
	assert(err == nil, "VerifyChecksum: %s", err)
	assert(ok, "VerifyChecksum: expected digest match")

	var bad [32]byte
	ok, err = VerifyChecksum(dest, bad)
	assert(err == nil, "VerifyChecksum(bad): %s", err)
	assert(!ok, "VerifyChecksum(bad): expected mismatch")
}
