package ioc_test

import (
	"testing"

	"github.com/junioryono/ioc"
	"github.com/junioryono/ioc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Cleanup(func() { ioc.SetDefault(nil) })

	assert.Nil(t, ioc.Default())

	r := testutil.NewRegistryBuilder(t).
		WithConstructor(testutil.NewTestService).
		Freeze()

	ioc.SetDefault(r)
	require.Same(t, r, ioc.Default())

	svc, err := ioc.Resolve[*testutil.TestService](ioc.Default())
	require.NoError(t, err)
	assert.NotEmpty(t, svc.ID)

	ioc.SetDefault(nil)
	assert.Nil(t, ioc.Default())

	_, err = ioc.Resolve[*testutil.TestService](ioc.Default())
	assert.ErrorIs(t, err, ioc.ErrResolverNil)
}
