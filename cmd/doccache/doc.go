// Command doccache inspects and maintains a document cache root from the
// command line, and renders thumbnails with the same pipeline the preview
// server uses.
//
// Usage:
//
//	doccache [flags] <command>
//
// Commands:
//
//	put <key> <file>        Store a file in the cache under key.
//	get <key> [out]         Write a cached document to out, or stdout.
//	exists <key>            Report whether key is cached.
//	path <key>              Print the location of key inside the cache root.
//	size [--recursive]      Print the size of the cache root.
//	stats                   Print file count, size and limits as JSON.
//	evict                   Trim the cache if it is over its size limit.
//	thumbnail <file> <out>  Render a thumbnail of file to out (.jpg or .png).
//	clean-scans             Delete expired files from the scan folder once.
//
// Flags fall back to the same environment variables the server reads:
//
//	DOCUMENT_CACHE_FOLDER    --cache-folder
//	DOCUMENT_CACHE_MAX_SIZE  --max-size
//	DOCUMENT_CACHE_RESIZED   --resized-size
//	NETWORK_SCAN_FOLDER      --scan-folder
//	SCANNED_FILE_LIFETIME    --scan-lifetime
//	LOG_LEVEL                --log-level
//	CONFIG_FILE              --config
package main
