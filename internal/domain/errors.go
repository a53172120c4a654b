package domain

import (
	"fmt"
	"strings"
)

type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("backup path %s is not usable: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

type ConnectivityError struct {
	Endpoint string
	Err      error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("cannot reach database server %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

type PermissionError struct {
	User string
	Err  error
}

func (e *PermissionError) Error() string {
	if e.User != "" {
		return fmt.Sprintf("user %s lacks backup privileges: %v", e.User, e.Err)
	}
	return fmt.Sprintf("current user lacks backup privileges: %v", e.Err)
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

type EmptyCatalogError struct {
	Requested []string
}

func (e *EmptyCatalogError) Error() string {
	if len(e.Requested) > 0 {
		return fmt.Sprintf("none of the requested databases exist on the server: %s",
			strings.Join(e.Requested, ", "))
	}
	return "no user databases found on the server"
}
