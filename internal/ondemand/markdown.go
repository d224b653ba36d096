package ondemand

import (
	"regexp"
	"strings"
)

// AI応答からMarkdown記法を除去するための正規表現。
// パッケージ初期化時に1回だけコンパイルする。
var (
	reCodeBlock  = regexp.MustCompile("```[\\s\\S]*?```")
	reInlineCode = regexp.MustCompile("`[^`\n]+`")
	reHeader     = regexp.MustCompile(`#{1,6}\s+`)
	reBoldItalic = regexp.MustCompile(`\*\*\*(.+?)\*\*\*`)
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic     = regexp.MustCompile(`\*(.+?)\*`)
	reUnder3     = regexp.MustCompile(`___(.+?)___`)
	reUnder2     = regexp.MustCompile(`__(.+?)__`)
	reUnder1     = regexp.MustCompile(`_(.+?)_`)
	reImage      = regexp.MustCompile(`!\[[^\]]*\]\([^\)]+\)`)
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	reHRule      = regexp.MustCompile(`(?m)^\s*[-*_]{3,}\s*$`)
	reBlockquote = regexp.MustCompile(`(?m)^>\s+`)
	reBulletList = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	reNumberList = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	reNewlines   = regexp.MustCompile(`\n{3,}`)
)

// RemoveMarkdown はテキストからMarkdown記法を除去したプレーンテキストを返す。
// レポートはそのまま画面表示・印刷されるため、記法を残さない。
// リンクは表示テキストを残し、画像は完全に除去する。
// 空文字列の入力には空文字列を返す。同一入力に対して常に同一出力を返す（冪等）。
func RemoveMarkdown(text string) string {
	if text == "" {
		return ""
	}

	// コードブロックとインラインコードを除去
	text = reCodeBlock.ReplaceAllString(text, "")
	text = reInlineCode.ReplaceAllString(text, "")

	// 見出し記号を除去
	text = reHeader.ReplaceAllString(text, "")

	// 強調記法を除去（内側のテキストは残す）
	text = reBoldItalic.ReplaceAllString(text, "$1")
	text = reBold.ReplaceAllString(text, "$1")
	text = reItalic.ReplaceAllString(text, "$1")
	text = reUnder3.ReplaceAllString(text, "$1")
	text = reUnder2.ReplaceAllString(text, "$1")
	text = reUnder1.ReplaceAllString(text, "$1")

	// 画像はリンクより先に除去する（!\[..\](..)は\[..\](..)にも一致するため）
	text = reImage.ReplaceAllString(text, "")
	text = reLink.ReplaceAllString(text, "$1")

	// 水平線、引用、リスト記号を除去
	text = reHRule.ReplaceAllString(text, "")
	text = reBlockquote.ReplaceAllString(text, "")
	text = reBulletList.ReplaceAllString(text, "")
	text = reNumberList.ReplaceAllString(text, "")

	// 3つ以上連続する改行を2つに詰める
	text = reNewlines.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
