package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("missing content engine returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingContentEngine)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Content: &mockContentEngine{},
			Members: &mockMemberService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil content engine returns error", func(t *testing.T) {
		ports := &Ports{Members: &mockMemberService{}}
		assert.ErrorIs(t, ports.Validate(), ErrMissingContentEngine)
	})

	t.Run("nil member service returns error", func(t *testing.T) {
		ports := &Ports{Content: &mockContentEngine{}}
		assert.ErrorIs(t, ports.Validate(), ErrMissingMemberService)
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Content:    &mockContentEngine{},
			Members:    &mockMemberService{},
			Controller: &mockResourceController{},
			Downloads:  &mockDownloadService{},
		}
		assert.NoError(t, ports.Validate())
	})
}
