// Package runfiles looks up logical paths in a build system's runfiles
// layout. Most users should call bazelenv.InitEnv, which selects and wires
// the right index automatically. Import this package directly only to
// parse a manifest or query a runfiles tree without the rest of the
// environment resolution.
//
// Two layouts are supported:
//   - a symlink tree, where a logical path is a real path below the
//     runfiles directory ([Directory]);
//   - a manifest file mapping logical paths to physical ones, used when
//     the filesystem cannot hold symlinks ([Manifest]).
package runfiles
