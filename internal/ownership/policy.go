// Package ownership はリソースの所有権検証ポリシーを提供する。
//
// 保護者スコープの全リソースアクセスはこのポリシーを通過する。
// 判定は3通りに固定される。
//   - リソースが存在しない: not foundエラー
//   - 所有者が呼び出し元と一致しない: forbiddenエラー（リソース内容は返さない）
//   - 一致する: リソースを返す
package ownership

import (
	"context"
	"reflect"

	"github.com/brainwave/brainwave/internal/model"
)

// Owned は所有者識別子を持つリソースのインターフェース。
type Owned interface {
	// OwnerID はリソースを所有する保護者のIdPサブジェクトIDを返す。
	OwnerID() string
}

// Authorize はリソースの取得と所有権検証をまとめて行う。
// lookupがnilを返した場合はnotFoundErrを、所有者が一致しない場合は
// forbiddenエラーを返す。検証済みのリソースだけが呼び出し元に渡る。
func Authorize[T Owned](ctx context.Context, callerID string, notFoundErr *model.APIError, lookup func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	resource, err := lookup(ctx)
	if err != nil {
		return zero, err
	}
	if isNil(resource) {
		return zero, notFoundErr
	}
	if resource.OwnerID() != callerID {
		return zero, model.NewForbiddenError()
	}

	return resource, nil
}

// Verify は取得済みリソースに対して所有権検証のみを行う。
func Verify(resource Owned, callerID string, notFoundErr *model.APIError) error {
	if isNil(resource) {
		return notFoundErr
	}
	if resource.OwnerID() != callerID {
		return model.NewForbiddenError()
	}
	return nil
}

// isNil は型付きnilポインターを検出する。
// リポジトリは未検出時に型付きnilを返すため、インターフェース比較だけでは
// 捕捉できない。
func isNil(resource Owned) bool {
	if resource == nil {
		return true
	}
	v := reflect.ValueOf(resource)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
