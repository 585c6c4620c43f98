package uevent

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-logr/logr"
)

const (
	ATTR_ACTION    = "ACTION"
	ATTR_DEVPATH   = "DEVPATH"
	ATTR_SUBSYSTEM = "SUBSYSTEM"
)

// ヘッダー行を組み立てられない場合のエラー
var ErrMissingHeader = errors.New("uevent: missing required header line values")

// 必須属性の一覧
var requiredAttributes = []string{ATTR_ACTION, ATTR_DEVPATH, ATTR_SUBSYSTEM}

// uevent の属性を保持する構造体
type Record struct {
	attributes map[string]string
	log        logr.Logger
}

// 新しいRecordを作成（ゼロ値のロガーは出力を破棄する）
func New(log logr.Logger) *Record {
	return &Record{
		attributes: make(map[string]string),
		log:        log,
	}
}

// 文字列からRecordを作成
func FromString(raw string, attributesOnly, trace bool, log logr.Logger) (*Record, error) {
	record := New(log)
	if err := ParseFromString(raw, record, attributesOnly, trace); err != nil {
		return nil, err
	}

	return record, nil
}

// バイト列からRecordを作成
func FromBytes(raw []byte, attributesOnly, trace bool, log logr.Logger) (*Record, error) {
	return FromString(string(raw), attributesOnly, trace, log)
}

// すべての属性を削除
func (r *Record) Clear() {
	clear(r.attributes)
}

// 属性を設定（同じ名前は上書き）
func (r *Record) SetAttribute(name, value string) {
	r.log.V(2).Info("Setting attribute", "name", name, "value", value)
	if r.attributes == nil {
		r.attributes = make(map[string]string)
	}
	r.attributes[name] = value
}

// 属性の値を取得（存在しない場合は空文字）
func (r *Record) Attribute(name string) string {
	return r.attributes[name]
}

// 属性が存在するかどうかを確認
func (r *Record) HasAttribute(name string) bool {
	_, ok := r.attributes[name]
	return ok
}

// ACTION、DEVPATH、SUBSYSTEM がすべて存在するかどうかを確認
func (r *Record) HasRequiredAttributes() bool {
	for _, name := range requiredAttributes {
		if !r.HasAttribute(name) {
			return false
		}
	}

	return true
}

// "ACTION@DEVPATH" 形式のヘッダー行を取得
func (r *Record) HeaderLine() (string, error) {
	if !r.HasAttribute(ATTR_ACTION) || !r.HasAttribute(ATTR_DEVPATH) {
		return "", ErrMissingHeader
	}

	return r.Attribute(ATTR_ACTION) + "@" + r.Attribute(ATTR_DEVPATH), nil
}

// ヘッダー行と属性を区切り文字で連結した文字列を取得
// 属性はキー名の昇順で出力する
func (r *Record) String(separator byte) (string, error) {
	header, err := r.HeaderLine()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte(separator)

	for _, name := range r.Names() {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(r.attributes[name])
		b.WriteByte(separator)
	}

	return b.String(), nil
}

// 属性の数を取得
func (r *Record) Len() int {
	return len(r.attributes)
}

// 属性名を昇順で取得
func (r *Record) Names() []string {
	names := make([]string, 0, len(r.attributes))
	for name := range r.attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// 属性のコピーを取得
func (r *Record) Attributes() map[string]string {
	attributesCopy := make(map[string]string, len(r.attributes))
	for k, v := range r.attributes {
		attributesCopy[k] = v
	}

	return attributesCopy
}

// 属性の集合が一致するかどうかを確認
func (r *Record) Equal(other *Record) bool {
	if other == nil || len(r.attributes) != len(other.attributes) {
		return false
	}

	for k, v := range r.attributes {
		if ov, ok := other.attributes[k]; !ok || ov != v {
			return false
		}
	}

	return true
}
