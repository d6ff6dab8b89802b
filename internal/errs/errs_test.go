package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesSentinelByKind(t *testing.T) {
	err := fmt.Errorf("build: %w", NotFound("section %q", "genres"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInvalidRequest))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestInvalidFacet_IsInvalidRequest(t *testing.T) {
	err := InvalidFacet("languages", "english", "applied twice")

	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.True(t, errors.Is(err, ErrInvalidFacet))
	assert.False(t, errors.Is(InvalidRequest("missing section"), ErrInvalidFacet))
	assert.Equal(t, CodeInvalidFacet, CodeOf(err))
	assert.Equal(t, "facet languages=english: applied twice", err.Error())
}

func TestProvider_WrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Provider(cause, "search failed")

	assert.ErrorIs(t, err, cause)
	assert.True(t, errors.Is(err, ErrProvider))
	assert.Equal(t, "search failed: dial tcp: timeout", err.Error())
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, "internal", KindInternal.String())
}

func TestConfig_JoinsProblems(t *testing.T) {
	err := Config(errors.Join(errors.New("a"), errors.New("b")))

	assert.True(t, errors.Is(err, ErrConfig))
	assert.Contains(t, err.Error(), "a\nb")
}
