package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_RenderOrderReceived(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	subject, body, err := r.Render("order_received", map[string]interface{}{
		"name":         "Jane Doe",
		"order_number": "2024030542",
		"items": []map[string]interface{}{
			{"name": "T-Shirt", "quantity": 2, "price": 500, "variations": []string{"color: red"}},
		},
		"subtotal":    1000,
		"tax":         "15.00",
		"order_total": "1015.00",
	})
	require.NoError(t, err)
	assert.Equal(t, "Thank you for your order #2024030542", subject)
	assert.Contains(t, body, "Jane Doe")
	assert.Contains(t, body, "T-Shirt")
	assert.Contains(t, body, "color: red")
	assert.Contains(t, body, "1015.00")
}

func TestRenderer_EscapesData(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, body, err := r.Render("account_verification", map[string]interface{}{
		"name":           "<script>alert(1)</script>",
		"activation_url": "http://localhost:8080/api/v1/auth/activate/abc",
	})
	require.NoError(t, err)
	assert.False(t, strings.Contains(body, "<script>"))
	assert.Contains(t, body, "/api/v1/auth/activate/abc")
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, _, err = r.Render("missing", nil)
	assert.Error(t, err)
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("shop@example.com", "jane@example.com", "Hello", "<p>Hi</p>"))
	assert.True(t, strings.HasPrefix(msg, "From: shop@example.com\r\n"))
	assert.Contains(t, msg, "To: jane@example.com\r\n")
	assert.Contains(t, msg, "Subject: Hello\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\n<p>Hi</p>"))
}
