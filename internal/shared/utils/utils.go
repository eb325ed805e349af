package utils

import (
	"strconv"
	"strings"
)

// ParsePagination đọc page/limit từ query, limit tối đa 100
func ParsePagination(pageStr, limitStr string) (page, limit int) {
	page, _ = strconv.Atoi(pageStr)
	limit, _ = strconv.Atoi(limitStr)
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// RemoveVietnameseAccents chuyển tiếng Việt có dấu sang ASCII.
// VNPay yêu cầu vnp_OrderInfo không dấu.
func RemoveVietnameseAccents(str string) string {
	replacements := map[string]string{
		"à": "a", "á": "a", "ả": "a", "ã": "a", "ạ": "a",
		"ă": "a", "ằ": "a", "ắ": "a", "ẳ": "a", "ẵ": "a", "ặ": "a",
		"â": "a", "ầ": "a", "ấ": "a", "ẩ": "a", "ẫ": "a", "ậ": "a",
		"đ": "d",
		"è": "e", "é": "e", "ẻ": "e", "ẽ": "e", "ẹ": "e",
		"ê": "e", "ề": "e", "ế": "e", "ể": "e", "ễ": "e", "ệ": "e",
		"ì": "i", "í": "i", "ỉ": "i", "ĩ": "i", "ị": "i",
		"ò": "o", "ó": "o", "ỏ": "o", "õ": "o", "ọ": "o",
		"ô": "o", "ồ": "o", "ố": "o", "ổ": "o", "ỗ": "o", "ộ": "o",
		"ơ": "o", "ờ": "o", "ớ": "o", "ở": "o", "ỡ": "o", "ợ": "o",
		"ù": "u", "ú": "u", "ủ": "u", "ũ": "u", "ụ": "u",
		"ư": "u", "ừ": "u", "ứ": "u", "ử": "u", "ữ": "u", "ự": "u",
		"ỳ": "y", "ý": "y", "ỷ": "y", "ỹ": "y", "ỵ": "y",
	}

	for viet, ascii := range replacements {
		str = strings.ReplaceAll(str, viet, ascii)
		str = strings.ReplaceAll(str, strings.ToUpper(viet), strings.ToUpper(ascii))
	}

	return str
}
