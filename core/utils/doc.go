// Package utils provides common utility functions for the cluster-merge application.
// It includes the fallible integer conversion used for cluster ids, plus string and
// boolean helpers shared by the table codecs and the queue worker.
package utils
