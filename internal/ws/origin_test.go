package ws

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginPolicyAllowList(t *testing.T) {
	p := NewOriginPolicy([]string{" http://Localhost:5173 ", "not a url", ""})

	assert.True(t, p.Allowed("http://localhost:5173"))
	assert.True(t, p.Allowed("HTTP://LOCALHOST:5173"))
	assert.False(t, p.Allowed("http://localhost:3000"))
	assert.False(t, p.Allowed("garbage"))
	assert.True(t, p.Allowed(""), "non-browser clients send no Origin")
}

func TestOriginPolicyWildcard(t *testing.T) {
	p := NewOriginPolicy([]string{"*"})
	assert.True(t, p.Allowed("https://anything.example"))
}

func TestOriginPolicyCheck(t *testing.T) {
	p := NewOriginPolicy([]string{"https://chat.example"})

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "https://chat.example")
	assert.True(t, p.Check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, p.Check(req))
}
