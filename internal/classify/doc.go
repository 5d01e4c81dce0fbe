// Package classify defines the failure taxonomy for the video relay
// pipeline and the mapping from raw tool diagnostics to it.
//
// Every stage reports failures as a classify.Error carrying one of the
// fixed Category values. Downloader output is classified by ordered
// substring rules over phrasings observed from the real tool; the rules
// are data, so new phrasings are added as table entries rather than
// control flow.
package classify
