package cachesaver

var MAGIC_BYTES = []byte("PPSNAP")
