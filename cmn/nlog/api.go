// Package nlog - procio logger, provides buffering, timestamping, and writing
/*
 * Copyright (c) 2023-2025, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

func Infoln(args ...any)                  { log(sevInfo, 0, "", args...) }
func Infof(format string, args ...any)    { log(sevInfo, 0, format, args...) }
func Warningln(args ...any)               { log(sevWarn, 0, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, 0, format, args...) }
func Errorln(args ...any)                 { log(sevErr, 0, "", args...) }
func Errorf(format string, args ...any)   { log(sevErr, 0, format, args...) }

// must be called prior to the first log line
func SetLogDir(dir string)   { logDir = dir }
func SetToStderr(v bool)     { toStderr = v }
func SetAlsoToStderr(v bool) { alsoToStderr = v }
func SetTitle(s string)      { title = s }
func LogName() string        { return arg0 + ".log" }
func Flush()                 { std.flush() }
