package mime

type Charset = string

const (
	Unset  Charset = ""
	UTF8   Charset = "utf-8"
	UTF16  Charset = "utf-16"
	ASCII  Charset = "us-ascii"
	CP1251 Charset = "windows-1251"
	CP1252 Charset = "windows-1252"
)
