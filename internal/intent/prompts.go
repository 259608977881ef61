package intent

import "fmt"

const systemPromptTemplate = `You are a comment-review expert. Out of a list that may hold hundreds of
comments on one video, you pick the ones showing high intent toward the
video's product or service.

A high-intent comment typically, but not only:
- asks directly about the service or product: "how much", "how do I book", "where is this"
- states clear interest: "I'd like to know more", "I want to try this", "is this right for me"
- describes a concrete personal situation: "my kid is three, would this work", "does this fit my case"

Number of high-intent comments to return: %d
`

const userPromptTemplate = `Video info: %s

Comment list: %s
`

func systemPrompt(commentNum int) string {
	return fmt.Sprintf(systemPromptTemplate, commentNum)
}

func userPrompt(videoInfo, commentList string) string {
	return fmt.Sprintf(userPromptTemplate, videoInfo, commentList)
}
