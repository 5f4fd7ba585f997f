// SPDX-License-Identifier: MPL-2.0

package launch

// ResolveImage returns repository:baseTag, or repository:paraview-<v> when a
// paraview version is selected.
func ResolveImage(repository, baseTag string, v ParaviewVersion) string {
	if v == ParaviewUnset {
		return repository + ":" + baseTag
	}
	return repository + ":paraview-" + string(v)
}
