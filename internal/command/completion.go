package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/covcache/internal/meta"
)

const bashCompletionScript = `# bash completion for covcache
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_covcache()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "analyse stats purge completion --help" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--cache-dir -d --store --cache --no-cache --color -c --no-color --filter -f --output -o --padding --sort -s --titles -t --no-titles --s3-bucket --s3-prefix --s3-region --s3-profile --s3-endpoint"

    case "$cmd" in
        analyse)
            local opts="$common --op --annotations --no-annotations --deprecated --no-deprecated --jobs -j"
            ;;
        purge)
            local opts="$common --hours"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "text json yaml" -- "$cur") )
            return 0
            ;;
        --store)
            COMPREPLY=( $(compgen -W "file s3" -- "$cur") )
            return 0
            ;;
        --op)
            COMPREPLY=( $(compgen -W "classes traits functions loc ignored" -- "$cur") )
            return 0
            ;;
        --cache-dir|-d)
            COMPREPLY=( $(compgen -o dirnames -- "$cur") )
            return 0
            ;;
    esac

    if [[ "$cur" == -* || "$cmd" != "analyse" ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
        return 0
    fi

    COMPREPLY=( $(compgen -f -- "$cur") )
    return 0
}

complete -F _covcache covcache
`

const zshCompletionScript = `#compdef covcache

_covcache() {
  local -a cmds
  cmds=(
    'analyse:report classes, traits, functions, line counts and ignored lines'
    'stats:show cache entry count, size and age'
    'purge:remove old cache entries'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
    '(-d --cache-dir)'{-d,--cache-dir}'[cache directory]:dir:_directories'
    '--store[cache store]:store:(file s3)'
    '(--cache --no-cache)'{--cache,--no-cache}'[use the persistent cache]'
    '(-c --color --no-color)'{-c,--color,--no-color}'[colored text]'
    '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
    '(-o --output)'{-o,--output}'[output format]:format:(text json yaml)'
    '--padding[column padding]:padding'
    '(-s --sort)'{-s,--sort}'[sort columns]:columns'
    '(-t --titles --no-titles)'{-t,--titles,--no-titles}'[show titles]'
    '--s3-bucket[S3 bucket]:bucket'
    '--s3-prefix[S3 key prefix]:prefix'
    '--s3-region[AWS region]:region'
    '--s3-profile[AWS profile]:profile'
    '--s3-endpoint[S3 endpoint]:url'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'covcache commands' cmds
    return
  fi

  case $words[2] in
    analyse)
      _arguments -C \
        $common \
        '--op[operations]:ops:(classes traits functions loc ignored)' \
        '(--annotations --no-annotations)'{--annotations,--no-annotations}'[coverage annotations]' \
        '(--deprecated --no-deprecated)'{--deprecated,--no-deprecated}'[ignore deprecated]' \
        '(-j --jobs)'{-j,--jobs}'[parallel files]:jobs' \
        '*:file:_files'
      ;;
    purge)
      _arguments -C $common '--hours[maximum age in hours]:hours'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _covcache covcache
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	w := Stdout(m)

	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	case "":
		// Try to detect from SHELL
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(w, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(w, bashCompletionScript)
		} else {
			return fmt.Errorf("usage: covcache completion [bash|zsh]")
		}
	default:
		return fmt.Errorf("unsupported shell %q, usage: covcache completion [bash|zsh]", shell)
	}
	return nil
}

func CompletionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "covcache completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
