// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"context"
	"errors"
	"log/slog"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bureau-foundation/aocfs/lib/calendar"
	"github.com/bureau-foundation/aocfs/lib/puzzlefs"
)

// DigestAttribute is the extended attribute carrying the hex BLAKE3
// digest of a fetched input.
const DigestAttribute = "user.aocfs.blake3"

// listPage is how many entries one readdir page pulls from the engine.
const listPage = 16

// filesystem is the state shared by every node of one mount.
type filesystem struct {
	engine  *puzzlefs.Engine
	handles *puzzlefs.HandleTable
	owner   fuse.Owner
	logger  *slog.Logger
}

// node is any entry in the tree. Behavior depends on what the engine
// says id is; the node itself holds nothing else.
type node struct {
	gofuse.Inode
	filesystem *filesystem
	id         calendar.ID
}

var _ gofuse.InodeEmbedder = (*node)(nil)
var _ gofuse.NodeLookuper = (*node)(nil)
var _ gofuse.NodeGetattrer = (*node)(nil)
var _ gofuse.NodeReaddirer = (*node)(nil)
var _ gofuse.NodeReadlinker = (*node)(nil)
var _ gofuse.NodeOpener = (*node)(nil)
var _ gofuse.NodeGetxattrer = (*node)(nil)
var _ gofuse.NodeListxattrer = (*node)(nil)

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	childID, err := n.filesystem.engine.ResolveChild(n.id, name)
	if err != nil {
		return nil, n.filesystem.errno("lookup", err)
	}
	validity, attributes, err := n.filesystem.engine.GetAttributes(childID)
	if err != nil {
		return nil, n.filesystem.errno("lookup", err)
	}

	n.filesystem.fillAttr(&out.Attr, attributes)
	out.SetEntryTimeout(validity)
	out.SetAttrTimeout(validity)

	child := n.NewInode(ctx, &node{filesystem: n.filesystem, id: childID}, gofuse.StableAttr{
		Mode: fileType(attributes.Kind),
		Ino:  uint64(childID),
	})
	return child, 0
}

func (n *node) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	validity, attributes, err := n.filesystem.engine.GetAttributes(n.id)
	if err != nil {
		return n.filesystem.errno("getattr", err)
	}
	n.filesystem.fillAttr(&out.Attr, attributes)
	out.SetTimeout(validity)
	return 0
}

func (n *node) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	target, err := n.filesystem.engine.ReadLink(n.id)
	if err != nil {
		return nil, n.filesystem.errno("readlink", err)
	}
	return []byte(target), 0
}

func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	stream := &listingStream{engine: n.filesystem.engine, id: n.id}
	stream.fill()
	if stream.errno != 0 && len(stream.pending) == 0 {
		return nil, n.filesystem.errno("readdir", stream.err)
	}
	return stream, 0
}

func (n *node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if writeIntent(flags) {
		return nil, 0, syscall.EROFS
	}
	file, err := n.filesystem.engine.Open(ctx, n.id)
	if err != nil {
		return nil, 0, n.filesystem.errno("open", err)
	}
	handle := &fileHandle{
		filesystem: n.filesystem,
		handle:     n.filesystem.handles.Insert(file),
	}
	// Direct I/O: the size reported before the first fetch is a
	// placeholder, and the kernel must not clip reads to it.
	return handle, fuse.FOPEN_DIRECT_IO, 0
}

func (n *node) Getxattr(ctx context.Context, attr string, dest []byte) (uint32, syscall.Errno) {
	if attr != DigestAttribute {
		return 0, syscall.ENODATA
	}
	digest, err := n.filesystem.engine.Digest(n.id)
	if err != nil {
		return 0, n.filesystem.errno("getxattr", err)
	}
	if len(dest) == 0 {
		return uint32(len(digest)), 0
	}
	if len(dest) < len(digest) {
		return uint32(len(digest)), syscall.ERANGE
	}
	return uint32(copy(dest, digest)), 0
}

func (n *node) Listxattr(ctx context.Context, dest []byte) (uint32, syscall.Errno) {
	if _, err := n.filesystem.engine.Digest(n.id); err != nil {
		if errors.Is(err, puzzlefs.ErrNoData) {
			return 0, 0
		}
		return 0, n.filesystem.errno("listxattr", err)
	}
	names := DigestAttribute + "\x00"
	if len(dest) == 0 {
		return uint32(len(names)), 0
	}
	if len(dest) < len(names) {
		return uint32(len(names)), syscall.ERANGE
	}
	return uint32(copy(dest, names)), 0
}

// fileHandle is one open daily file. The file itself lives in the
// mount's HandleTable.
type fileHandle struct {
	filesystem *filesystem
	handle     puzzlefs.Handle
}

var _ gofuse.FileReader = (*fileHandle)(nil)
var _ gofuse.FileReleaser = (*fileHandle)(nil)

func (h *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, err := h.filesystem.handles.Read(h.handle, off, len(dest))
	if err != nil {
		return nil, h.filesystem.errno("read", err)
	}
	return fuse.ReadResultData(data), 0
}

func (h *fileHandle) Release(ctx context.Context) syscall.Errno {
	if err := h.filesystem.handles.Release(h.handle); err != nil {
		return h.filesystem.errno("release", err)
	}
	return 0
}

// fillAttr copies engine attributes into a kernel attribute reply.
func (f *filesystem) fillAttr(out *fuse.Attr, attributes puzzlefs.Attributes) {
	out.Ino = uint64(attributes.ID)
	out.Mode = fileType(attributes.Kind) | attributes.Perm
	out.Nlink = attributes.Nlink
	out.Size = attributes.Size
	out.Blocks = attributes.Blocks
	out.Blksize = attributes.Blksize
	out.Owner = f.owner
	mtime := attributes.Mtime
	out.SetTimes(&mtime, &mtime, &mtime)
}

// errno maps an engine error to its errno. Storage failures are logged
// here, once, since the kernel only sees EIO.
func (f *filesystem) errno(operation string, err error) syscall.Errno {
	errno := toErrno(err)
	if errno == syscall.EIO {
		f.logger.Error("filesystem request failed", "operation", operation, "error", err)
	}
	return errno
}

// toErrno maps engine sentinel errors to errno values.
func toErrno(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, puzzlefs.ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, puzzlefs.ErrNotADirectory):
		return syscall.ENOTDIR
	case errors.Is(err, puzzlefs.ErrIsADirectory):
		return syscall.EISDIR
	case errors.Is(err, puzzlefs.ErrInvalidArgument):
		return syscall.EINVAL
	case errors.Is(err, puzzlefs.ErrNoData):
		return syscall.ENODATA
	case errors.Is(err, puzzlefs.ErrUnknownHandle):
		return syscall.EBADF
	default:
		return syscall.EIO
	}
}

// fileType returns the S_IFMT bits for kind.
func fileType(kind puzzlefs.Kind) uint32 {
	switch kind {
	case puzzlefs.KindDirectory:
		return syscall.S_IFDIR
	case puzzlefs.KindSymlink:
		return syscall.S_IFLNK
	default:
		return syscall.S_IFREG
	}
}

// writeIntent reports whether open flags ask for anything but reading.
func writeIntent(flags uint32) bool {
	return flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_TRUNC|syscall.O_APPEND) != 0
}
