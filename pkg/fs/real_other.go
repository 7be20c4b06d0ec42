//go:build !linux

package fs

func openAnonymous(string) (File, error) {
	return nil, errAnonymousUnsupported
}
