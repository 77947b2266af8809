package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFullVersion_LinkedValues(t *testing.T) {
	version, build, commit := Version, Build, GitCommit
	defer func() { Version, Build, GitCommit = version, build, commit }()

	Version, Build, GitCommit = "1.4.0", "2022-07-02T15:00:00Z", "0123abcd"

	assert.Equal(t, "1.4.0", GetVersion())
	assert.Equal(t, "marketmood 1.4.0 (build: 2022-07-02T15:00:00Z, commit: 0123abcd)", GetFullVersion())
}

func TestShortRevision(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortRevision("0123456789abcdef0123456789abcdef01234567"))
	assert.Equal(t, "abc", shortRevision("abc"))
}
