package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Proyectos-api/internal/application/jobs"
	"github.com/jhoicas/Proyectos-api/internal/testutil/mocks"
	"github.com/jhoicas/Proyectos-api/pkg/config"
)

func TestNewFromConfig(t *testing.T) {
	pub := &mocks.Publisher{}
	s, err := NewFromConfig(config.JobsConfig{
		OverdueSpec: "0 0 * * * *",
		CleanupSpec: "0 30 3 * * *",
	}, pub, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Entries())
}

func TestNewFromConfig_ExpresionInvalida(t *testing.T) {
	_, err := NewFromConfig(config.JobsConfig{OverdueSpec: "cada hora", CleanupSpec: "0 0 3 * * *"}, &mocks.Publisher{}, nil)
	assert.ErrorContains(t, err, "cada hora")
}

func TestFire_PublicaYToleraErrores(t *testing.T) {
	pub := &mocks.Publisher{}
	s := New(pub, nil)

	s.Fire(jobs.Cleanup(45))
	require.Len(t, pub.Named(jobs.JobCleanup), 1)
	assert.JSONEq(t, `{"days":45}`, string(pub.Jobs[0].Payload))

	pub.Err = errors.New("broker caído")
	assert.NotPanics(t, func() { s.Fire(jobs.CheckOverdue()) })
	assert.Len(t, pub.Jobs, 1)
}
