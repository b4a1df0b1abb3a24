// Package host binds the tool to a local mod-manager layout.
//
// The layout has two roots. The downloads directory holds archives, each
// with a "<archive>.meta" companion recording the game slug, mod id, and
// file id it came from. The mods directory holds one subdirectory per
// installed mod, each with a meta.ini naming its mod id. Both roots are
// scanned to answer "is this already owned?" during resolution, and the
// downloads directory is where the dispatcher lands new archives.
package host
