package logging

import "regexp"

var (
	// クエリパラメータに含まれるAPIトークン
	queryTokenPattern = regexp.MustCompile(`(?i)((?:api_token|api_key|apikey|access_token|token)=)[^&\s"']+`)

	// Authorization ヘッダ値
	bearerPattern = regexp.MustCompile(`(?i)(bearer\s+)[a-z0-9._\-]+`)

	// データベースパスワードパターン（DSN内）
	dbPasswordPattern = regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`)
)

// SanitizeError は機密情報をマスクしたエラーメッセージを返す
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// SanitizeString masks credentials embedded in msg.
func SanitizeString(msg string) string {
	msg = queryTokenPattern.ReplaceAllString(msg, "${1}****")
	msg = bearerPattern.ReplaceAllString(msg, "${1}****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
