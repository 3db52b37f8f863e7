package storage

import "errors"

// ErrLibraryNotFound возвращается, когда библиотека не найдена в хранилище
var ErrLibraryNotFound = errors.New("library not found")

// ErrEmptyAddress возвращается при попытке сохранить библиотеку без lightning-адреса
var ErrEmptyAddress = errors.New("empty lightning address")

// ErrInvalidLibrary возвращается, когда содержимое библиотеки не является корректным JSON
var ErrInvalidLibrary = errors.New("invalid library document")
