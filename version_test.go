package arbor

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion_IsSemver(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^\d+\.\d+\.\d+$`), Version)
}
