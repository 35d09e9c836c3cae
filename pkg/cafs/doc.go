/*
Package cafs implements a content-addressable file system on top of a storage backend.

Content is addressed by the MD5 digest of its bytes. A block is stored at

	<2 first hex digits>/<3rd hex digit>/<full hex digest>

Content larger than the block size limit (the leaf size) is split into parts, each
stored as a block under its own digest. A manifest listing the parts in order is then
stored next to the block path of the whole content, with a ".manifest" suffix:

	[
	  {
	    "hash": "<part digest>",
	    "bytes": <part size>
	  },
	  ...
	]

Content is written once, sequentially, with a Writer. Its key is only known when the
Writer is closed. A Reader serves reads at any offset and only opens the parts it touches.
*/
package cafs
