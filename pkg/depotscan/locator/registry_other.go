//go:build !windows

package locator

// registryRoots has no registry to consult outside Windows.
func registryRoots() []string {
	return nil
}
