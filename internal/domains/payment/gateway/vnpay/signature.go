package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// =====================================================
// VNPAY SIGNATURE
// =====================================================

// Thuật toán (giống PHP reference của VNPay):
// 1. Bỏ vnp_SecureHash, vnp_SecureHashType và các value rỗng
// 2. Sort key tăng dần
// 3. urlencode(key)=urlencode(value) nối bằng &
// 4. HMAC-SHA512(hashData, secret), hex viết hoa
// Cùng một canonical string dùng cho cả URL lẫn verify callback.

func isSignatureKey(k string) bool {
	return k == "vnp_SecureHash" || k == "vnp_SecureHashType"
}

// canonicalQuery trả về chuỗi đã sort + encode, cũng chính là query string.
func canonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if isSignatureKey(k) || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, phpURLEncode(k)+"="+phpURLEncode(params[k]))
	}
	return strings.Join(parts, "&")
}

// Sign returns the upper-case hex HMAC-SHA512 of the canonical params.
func Sign(params map[string]string, secret string) string {
	return sign(canonicalQuery(params), secret)
}

func sign(data, secret string) string {
	h := hmac.New(sha512.New, []byte(secret))
	h.Write([]byte(data))
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}

// VerifySignature so sánh constant-time, không phân biệt hoa thường.
func VerifySignature(params map[string]string, secret string) bool {
	received := params["vnp_SecureHash"]
	if received == "" {
		return false
	}
	expected := Sign(params, secret)
	return hmac.Equal([]byte(strings.ToLower(received)), []byte(strings.ToLower(expected)))
}

// BuildPaymentURL appends the signed query to baseURL.
func BuildPaymentURL(baseURL string, params map[string]string, secret string) string {
	query := canonicalQuery(params)
	return baseURL + "?" + query + "&vnp_SecureHash=" + sign(query, secret)
}

// phpURLEncode encodes string like PHP's urlencode()
// spaces become '+', Go's QueryEscape already does that
func phpURLEncode(s string) string {
	return url.QueryEscape(s)
}

// ParseQuery lấy các tham số vnp_* từ raw query string.
func ParseQuery(rawQuery string) (map[string]string, error) {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, err
	}
	params := make(map[string]string, len(values))
	for k, vals := range values {
		if strings.HasPrefix(k, "vnp_") && len(vals) > 0 {
			params[k] = vals[0]
		}
	}
	return params, nil
}
