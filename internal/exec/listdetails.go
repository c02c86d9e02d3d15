package exec

import "runtime"

// ListDetailsTemplate synthesizes the batched template spec §4.4 names for
// --list-details/-l: a platform ls-family invocation with fixed options,
// colorized and human-readable, following the same batching rules as any
// other --exec-batch template.
func ListDetailsTemplate() Template {
	if runtime.GOOS == "windows" {
		return ParseTemplate([]string{"cmd", "/c", "dir", "{}"})
	}
	return ParseTemplate([]string{"ls", "-lh", "--color=always", "-d", "{}"})
}
