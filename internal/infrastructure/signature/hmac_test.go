package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testSecret = "hush"

func hexSig(msg string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyInstall(t *testing.T) {
	v := NewVerifier(testSecret, "")

	query := url.Values{}
	query.Set("shop", "demo.myshopify.com")
	query.Set("timestamp", "1337178173")
	query.Set("code", "0907a61c0c8d55e99db179b68161bc00")
	query.Set("hmac", hexSig("code=0907a61c0c8d55e99db179b68161bc00&shop=demo.myshopify.com&timestamp=1337178173"))

	t.Run("valid signature", func(t *testing.T) {
		assert.True(t, v.VerifyInstall(query))
	})

	t.Run("uppercase hex accepted", func(t *testing.T) {
		q := cloneValues(query)
		q.Set("hmac", hexSigUpper(q.Get("hmac")))
		assert.True(t, v.VerifyInstall(q))
	})

	t.Run("tampered parameter", func(t *testing.T) {
		q := cloneValues(query)
		q.Set("shop", "other.myshopify.com")
		assert.False(t, v.VerifyInstall(q))
	})

	t.Run("missing hmac", func(t *testing.T) {
		q := cloneValues(query)
		q.Del("hmac")
		assert.False(t, v.VerifyInstall(q))
	})

	t.Run("wrong secret", func(t *testing.T) {
		assert.False(t, NewVerifier("other", "").VerifyInstall(query))
	})
}

func TestVerifyInstall_MultiValued(t *testing.T) {
	v := NewVerifier(testSecret, "")

	query := url.Values{}
	query.Set("shop", "demo.myshopify.com")
	query["ids[]"] = []string{"1", "2"}
	query.Set("hmac", hexSig("ids[]=1,2&shop=demo.myshopify.com"))

	assert.True(t, v.VerifyInstall(query))
}

func TestVerifyAppProxy(t *testing.T) {
	v := NewVerifier(testSecret, "")

	query := url.Values{}
	query.Set("shop", "demo.myshopify.com")
	query.Set("path_prefix", "/apps/bareboneproxy")
	query.Set("timestamp", "1317327555")
	query["extra"] = []string{"1", "2"}
	query.Set("signature", hexSig("extra=1,2path_prefix=/apps/bareboneproxyshop=demo.myshopify.comtimestamp=1317327555"))

	assert.True(t, v.VerifyAppProxy(query))

	query.Set("timestamp", "1317327556")
	assert.False(t, v.VerifyAppProxy(query))
}

func TestVerifyAppProxy_SortsPairs(t *testing.T) {
	v := NewVerifier(testSecret, "")

	// "a-b=2" sorts before "a=1" although key "a" sorts before "a-b"
	query := url.Values{"a": {"1"}, "a-b": {"2"}, "shop": {"demo.myshopify.com"}}
	query.Set("signature", hexSig("a-b=2a=1shop=demo.myshopify.com"))

	assert.True(t, v.VerifyAppProxy(query))
	assert.Equal(t, query.Get("signature"), v.SignAppProxy(query))
}

func FuzzQuerySignatures(f *testing.F) {
	f.Add("demo.myshopify.com", "1337178173", "ids[]", "1", "2")
	f.Add("", "", "a-b", "x;y", "")
	f.Add("shop with spaces", "0", "path_prefix", "/apps/bareboneproxy", "&hmac=1")

	v := NewVerifier(testSecret, "")
	f.Fuzz(func(t *testing.T, shop, timestamp, key, first, second string) {
		query := url.Values{}
		query.Set("shop", shop)
		query.Set("timestamp", timestamp)
		switch key {
		case "", "timestamp", InstallSignatureParam, AppProxySignatureParam:
		default:
			query[key] = []string{first, second}
		}

		install := cloneValues(query)
		install.Set(InstallSignatureParam, v.SignInstall(install))
		assert.True(t, v.VerifyInstall(install))

		proxy := cloneValues(query)
		proxy.Set(AppProxySignatureParam, v.SignAppProxy(proxy))
		assert.True(t, v.VerifyAppProxy(proxy))

		install.Set("timestamp", timestamp+"0")
		assert.False(t, v.VerifyInstall(install))
		proxy.Set("timestamp", timestamp+"0")
		assert.False(t, v.VerifyAppProxy(proxy))
	})
}

func TestVerifyWebhook(t *testing.T) {
	body := []byte(`{"shop_id":954889,"shop_domain":"demo.myshopify.com"}`)

	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(body)
	header := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	v := NewVerifier(testSecret, "whsec")
	assert.True(t, v.VerifyWebhook(body, header))
	assert.False(t, v.VerifyWebhook(append(body, ' '), header))
	assert.False(t, v.VerifyWebhook(body, ""))

	t.Run("falls back to api secret", func(t *testing.T) {
		v := NewVerifier("whsec", "")
		assert.True(t, v.VerifyWebhook(body, header))
	})
}

func TestSignInstall_IgnoresHmacParam(t *testing.T) {
	v := NewVerifier(testSecret, "")
	q := url.Values{"shop": {"demo.myshopify.com"}}
	withHmac := cloneValues(q)
	withHmac.Set("hmac", "anything")
	assert.Equal(t, v.SignInstall(q), v.SignInstall(withHmac))
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

func hexSigUpper(s string) string {
	b, _ := hex.DecodeString(s)
	const digits = "0123456789ABCDEF"
	out := make([]byte, 0, len(b)*2)
	for _, c := range b {
		out = append(out, digits[c>>4], digits[c&0x0f])
	}
	return string(out)
}
