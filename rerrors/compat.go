/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package rerrors

import "sync"

var (
	patternMutex        sync.RWMutex
	defaultPattern       = "[%d] %s"
	defaultPatternTrace  = "[%d] %s (%s)"
)

// SetDefaultPattern sets the fmt pattern used by Error.CodeError when none
// is given - must take a %d (code) then a %s (message).
func SetDefaultPattern(pattern string) {
	patternMutex.Lock()
	defer patternMutex.Unlock()
	defaultPattern = pattern
}

func GetDefaultPattern() string {
	patternMutex.RLock()
	defer patternMutex.RUnlock()
	return defaultPattern
}

// SetDefaultPatternTrace sets the fmt pattern used by Error.CodeErrorTrace -
// must take a %d (code), a %s (message) then a %s (trace).
func SetDefaultPatternTrace(pattern string) {
	patternMutex.Lock()
	defer patternMutex.Unlock()
	defaultPatternTrace = pattern
}

func GetDefaultPatternTrace() string {
	patternMutex.RLock()
	defer patternMutex.RUnlock()
	return defaultPatternTrace
}
